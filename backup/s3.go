// Package backup implements an optional off-box mirror (§ DOMAIN STACK):
// once a group uploads successfully, its combined and trimmed artifacts are
// copied to an S3-compatible bucket for durability beyond the local disk.
// Grounded on the teacher's clients/s3.go (S3 interface over
// github.com/aws/aws-sdk-go's s3.S3), adapted from a presigned-GET/GetObject
// reader to a PutObject mirror since this pipeline only ever writes.
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/log"
)

// S3 is the narrow interface the teacher's clients.S3 exposes, trimmed to
// the one operation this mirror needs.
type S3 interface {
	PutObject(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

// Mirror copies artifacts to an S3 bucket. A zero-value Mirror (empty
// bucket) is a no-op, so callers can construct it unconditionally and let
// config decide whether it does anything.
type Mirror struct {
	client S3
	bucket string
	prefix string
}

// NewMirror constructs a Mirror from cfg. If cfg.Bucket is empty the
// returned Mirror silently skips every Upload call (disabled).
func NewMirror(cfg config.BackupConfig) (*Mirror, error) {
	if cfg.Bucket == "" {
		return &Mirror{}, nil
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	return &Mirror{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Enabled reports whether the mirror has a bucket configured.
func (m *Mirror) Enabled() bool { return m.bucket != "" }

// UploadArtifacts mirrors every *.mp4 file directly under groupDir
// (combined.mp4 and the converted segments) and every *.mp4 file one level
// down (the trimmed raw/processed outputs, which video.TrimOutputPath places
// in a subdirectory) to the bucket, keyed by prefix/groupName/filename.
// Called by the Upload Processor after a
// successful youtube_upload (purely additive; a failure here is logged, not
// propagated, since the group has already reached its terminal state).
func (m *Mirror) UploadArtifacts(groupDir string) {
	if !m.Enabled() {
		return
	}
	entries, err := os.ReadDir(groupDir)
	if err != nil {
		log.LogError(filepath.Base(groupDir), "backup: reading group dir", err)
		return
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(groupDir, e.Name())
		if e.IsDir() {
			subEntries, err := os.ReadDir(path)
			if err != nil {
				log.LogError(filepath.Base(groupDir), "backup: reading trim output dir", err, "dir", e.Name())
				continue
			}
			for _, se := range subEntries {
				if !se.IsDir() && filepath.Ext(se.Name()) == ".mp4" {
					paths = append(paths, filepath.Join(path, se.Name()))
				}
			}
			continue
		}
		if filepath.Ext(e.Name()) == ".mp4" {
			paths = append(paths, path)
		}
	}
	for _, path := range paths {
		if err := m.uploadFile(groupDir, path); err != nil {
			log.LogError(filepath.Base(groupDir), "backup: uploading artifact", err, "file", filepath.Base(path))
		}
	}
}

func (m *Mirror) uploadFile(groupDir, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	key := filepath.Join(m.prefix, filepath.Base(groupDir), filepath.Base(path))
	_, err = m.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("putting %s/%s: %w", m.bucket, key, err)
	}
	return nil
}
