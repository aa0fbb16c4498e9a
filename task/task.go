// Package task defines the units of stage work that flow through the
// Download, Video, and Upload queues. Per Design Note "Dynamic task
// dispatch", these are tagged variants rather than an open string-keyed type
// registry: one Type enum covering every queue, a single struct carrying every variant's
// fields, and a switch on Type inside each stage's worker.
package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// Queue identifies which stage processor a Task belongs to (§9 QueueType).
type Queue string

const (
	QueueDownload Queue = "download"
	QueueVideo    Queue = "video"
	QueueUpload   Queue = "upload"
	// QueueAutocam is reserved per the Open Question in §9: QueueName maps
	// TypeAutocam to it, but no queue is registered for it, so
	// TaskRouter.AddWork returns an error for an autocam task.
	QueueAutocam Queue = "autocam"
)

// Type identifies the specific operation within a queue.
type Type string

const (
	TypeDownload Type = "dahua_download"
	TypeConvert  Type = "convert"
	TypeCombine  Type = "combine"
	TypeTrim     Type = "trim"
	TypeUpload   Type = "youtube_upload"
	TypeAutocam  Type = "autocam"
)

// Task is a tagged union over every queue-able operation. Only the fields
// relevant to Type are populated; this mirrors the teacher's habit of a
// single flat struct for wire-serializable variants rather than Go's
// interface-based polymorphism, since the set of variants is closed and the
// queue needs to serialize/deserialize them without a type registry.
type Task struct {
	ID   string `json:"id"`
	Type Type   `json:"task_type"`

	// Download
	RemotePath    string    `json:"remote_path,omitempty"`
	LocalPath     string    `json:"local_path,omitempty"`
	StartTime     time.Time `json:"start_time,omitempty"`
	EndTime       time.Time `json:"end_time,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes,omitempty"`

	// Convert
	FilePath string `json:"file_path,omitempty"`

	// Combine / Trim / Upload
	GroupDir string `json:"group_dir,omitempty"`

	// Trim
	StartOffset string `json:"start_offset,omitempty"`
	EndOffset   string `json:"end_offset,omitempty"`
}

// QueueName returns which stage processor this task routes to.
func (t Task) QueueName() Queue {
	switch t.Type {
	case TypeDownload:
		return QueueDownload
	case TypeConvert, TypeCombine, TypeTrim:
		return QueueVideo
	case TypeUpload:
		return QueueUpload
	case TypeAutocam:
		return QueueAutocam
	default:
		return ""
	}
}

// Key returns the stable deduplication string for this task (§4.1, §8
// scenario 4). It identifies the task's effect, not its identity, so two
// enqueues of logically the same work collapse to one queue entry.
func (t Task) Key() string {
	switch t.Type {
	case TypeDownload:
		return fmt.Sprintf("download:%s", t.LocalPath)
	case TypeConvert:
		return fmt.Sprintf("convert:%s", t.FilePath)
	case TypeCombine:
		return fmt.Sprintf("combine:%s", t.GroupDir)
	case TypeTrim:
		return fmt.Sprintf("trim:%s", t.GroupDir)
	case TypeUpload:
		return fmt.Sprintf("upload:%s", t.GroupDir)
	case TypeAutocam:
		return fmt.Sprintf("autocam:%s", t.GroupDir)
	default:
		return fmt.Sprintf("%s:%s", t.Type, t.ID)
	}
}

func NewDownloadTask(remotePath, localPath string, start, end time.Time, size int64) Task {
	return Task{
		Type:          TypeDownload,
		RemotePath:    remotePath,
		LocalPath:     localPath,
		StartTime:     start,
		EndTime:       end,
		FileSizeBytes: size,
	}
}

func NewConvertTask(filePath string) Task {
	return Task{Type: TypeConvert, FilePath: filePath}
}

func NewCombineTask(groupDir string) Task {
	return Task{Type: TypeCombine, GroupDir: groupDir}
}

func NewTrimTask(groupDir, startOffset, endOffset string) Task {
	return Task{Type: TypeTrim, GroupDir: groupDir, StartOffset: startOffset, EndOffset: endOffset}
}

func NewUploadTask(groupDir string) Task {
	return Task{Type: TypeUpload, GroupDir: groupDir}
}

// Marshal/Unmarshal wrap encoding/json to keep the durable-queue file format
// (§6, "Queue file: JSON array") in one place.
func Marshal(t Task) ([]byte, error) {
	return json.Marshal(t)
}

func Unmarshal(data []byte) (Task, error) {
	var t Task
	err := json.Unmarshal(data, &t)
	return t, err
}
