package stores

import (
	"argo-gateway/core"
	"argo-gateway/stores/aws"
	"argo-gateway/stores/filesystem"
	"argo-gateway/stores/memory"
	"argo-gateway/stores/sqlite"
	"os"

	"github.com/sirupsen/logrus"
)

// GetStore selects the blob store and upload ledger from the environment.
// The sqlite backend serves both roles through one database; every other
// blob backend is paired with a ledger (sqlite when DATA_SOURCE_NAME is set,
// in-memory otherwise).
func GetStore() (core.BlobStore, core.UploadLedger) {
	storageType := os.Getenv("STORAGE_TYPE")

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	var blobs core.BlobStore
	var ledger core.UploadLedger

	switch storageType {
	case "memory":
		mem := memory.NewStore()
		blobs, ledger = mem, mem
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "argo-gateway.db"
		}
		storageField["dataSourceName"] = dataSourceName
		db := sqlite.NewStore(dataSourceName)
		blobs, ledger = db, db
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		blobs = aws.NewStore(bucketName)
	default:
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "uploads"
		}
		storageField["storageType"] = "filesystem"
		storageField["basePath"] = basePath
		blobs = filesystem.NewStore(basePath)
	}

	if ledger == nil {
		if dataSourceName := os.Getenv("DATA_SOURCE_NAME"); dataSourceName != "" {
			storageField["dataSourceName"] = dataSourceName
			storageField["ledger"] = "sqlite"
			ledger = sqlite.NewStore(dataSourceName)
		} else {
			storageField["ledger"] = "in-memory"
			ledger = memory.NewStore()
			logrus.Warn("DATA_SOURCE_NAME is not set; upload history is kept in memory and lost on restart")
		}
	} else {
		storageField["ledger"] = storageType
	}

	logrus.WithFields(storageField).Info("Use storage")
	return blobs, ledger
}
