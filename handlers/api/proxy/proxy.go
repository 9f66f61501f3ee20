// Package proxy maps inbound REST routes onto the processing service. Each
// route is a declarative entry (method, pattern, upstream path template,
// query rename table, forwarded body fields, static failure message)
// consumed by one generic handler, so every proxied call behaves uniformly:
// exactly one outbound call, one envelope back, no retries.
package proxy

import (
	"argo-gateway/envelope"
	"argo-gateway/mlservice"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Param forwards one inbound query parameter to the upstream side, optionally
// renamed and with a default applied when the caller omits it.
type Param struct {
	Inbound  string
	Upstream string
	Default  string
}

// Route declares one proxied endpoint.
type Route struct {
	Method       string
	Pattern      string // chi pattern for the inbound side
	UpstreamPath string // may contain {param} placeholders bound to the pattern
	Query        []Param
	Body         []string // JSON body fields forwarded on POST
	Failure      string   // static message returned on any upstream fault
}

// Routes is the full proxy surface of the gateway. Upstream paths and field
// names follow the processing service's API, which does not always mirror
// the inbound naming.
func Routes() []Route {
	return []Route{
		{
			Method:       http.MethodPost,
			Pattern:      "/chat/message",
			UpstreamPath: "/api/chat/message",
			Body:         []string{"message", "conversationId"},
			Failure:      "Error processing chat message",
		},
		{
			Method:       http.MethodGet,
			Pattern:      "/data/floats",
			UpstreamPath: "/api/floats",
			Query: []Param{
				{Inbound: "lat", Upstream: "lat"},
				{Inbound: "lon", Upstream: "lon"},
				{Inbound: "radius", Upstream: "radius"},
				{Inbound: "startDate", Upstream: "startDate"},
				{Inbound: "endDate", Upstream: "endDate"},
			},
			Failure: "Error fetching float data",
		},
		{
			Method:       http.MethodGet,
			Pattern:      "/data/profiles/{floatId}",
			UpstreamPath: "/api/profiles/{floatId}",
			Query: []Param{
				{Inbound: "parameter", Upstream: "parameter"},
				{Inbound: "startDate", Upstream: "startDate"},
				{Inbound: "endDate", Upstream: "endDate"},
			},
			Failure: "Error fetching profile data",
		},
		{
			Method:       http.MethodGet,
			Pattern:      "/data/search",
			UpstreamPath: "/api/search",
			Query: []Param{
				{Inbound: "query", Upstream: "query"},
				{Inbound: "limit", Upstream: "limit", Default: "10"},
			},
			Failure: "Error searching data",
		},
		{
			Method:       http.MethodGet,
			Pattern:      "/data/statistics",
			UpstreamPath: "/api/statistics",
			Failure:      "Error fetching statistics",
		},
		{
			Method:       http.MethodPost,
			Pattern:      "/visualization/plot",
			UpstreamPath: "/api/visualization/plot",
			Body:         []string{"type", "data", "options"},
			Failure:      "Error generating visualization",
		},
		{
			Method:       http.MethodGet,
			Pattern:      "/visualization/map-data",
			UpstreamPath: "/api/visualization/map-data",
			Query: []Param{
				{Inbound: "bounds", Upstream: "bounds"},
				{Inbound: "filters", Upstream: "filters"},
			},
			Failure: "Error fetching map data",
		},
	}
}

// Handler builds the generic dispatch handler for one route.
func Handler(route Route, client *mlservice.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logrus.WithFields(logrus.Fields{
			"route":    route.Pattern,
			"upstream": route.UpstreamPath,
		})

		var (
			data json.RawMessage
			err  error
		)

		switch route.Method {
		case http.MethodPost:
			var fields map[string]any
			if decodeErr := json.NewDecoder(r.Body).Decode(&fields); decodeErr != nil {
				envelope.Error(w, r, http.StatusBadRequest, "Invalid request body")
				return
			}
			data, err = client.PostJSON(r.Context(), expandPath(route.UpstreamPath, r), pickFields(fields, route.Body))
		default:
			data, err = client.GetJSON(r.Context(), expandPath(route.UpstreamPath, r), buildQuery(route.Query, r))
		}

		if err != nil {
			log.WithError(err).Error("Upstream call failed")
			envelope.Error(w, r, http.StatusInternalServerError, route.Failure)
			return
		}

		envelope.OK(w, r, data)
	}
}

// expandPath substitutes {param} placeholders with the inbound URL params.
func expandPath(template string, r *http.Request) string {
	if !strings.Contains(template, "{") {
		return template
	}

	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := seg[1 : len(seg)-1]
			segments[i] = url.PathEscape(chi.URLParam(r, name))
		}
	}
	return strings.Join(segments, "/")
}

func buildQuery(params []Param, r *http.Request) url.Values {
	if len(params) == 0 {
		return nil
	}

	inbound := r.URL.Query()
	query := url.Values{}
	for _, p := range params {
		value := inbound.Get(p.Inbound)
		if value == "" {
			value = p.Default
		}
		if value != "" {
			query.Set(p.Upstream, value)
		}
	}
	return query
}

// pickFields keeps only the declared body fields; anything else the caller
// sent stays behind the gateway.
func pickFields(fields map[string]any, declared []string) map[string]any {
	body := make(map[string]any, len(declared))
	for _, name := range declared {
		if value, ok := fields[name]; ok {
			body[name] = value
		}
	}
	return body
}
