package bolt

import (
	"os"
	"path/filepath"
	"time"

	boltdb "go.etcd.io/bbolt"
)

// Bucket names used by the demo-mode repositories.
var (
	BucketTasks      = []byte("tasks")
	BucketUsers      = []byte("users")
	BucketUserEmails = []byte("user_emails")
	BucketSessions   = []byte("sessions")
)

// Open initializes the BoltDB file backing demo mode and ensures all
// buckets exist.
func Open(path string) (*boltdb.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := boltdb.Open(path, 0o600, &boltdb.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *boltdb.Tx) error {
		for _, bucket := range [][]byte{BucketTasks, BucketUsers, BucketUserEmails, BucketSessions} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
