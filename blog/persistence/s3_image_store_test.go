package persistence

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	putBodies []string
	deletes   []string
	err       error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(input.Body)
	f.puts = append(f.puts, input)
	f.putBodies = append(f.putBodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, input *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3ImageStore_Save(t *testing.T) {
	client := &fakeS3{}
	store := newS3ImageStore(client, "feed-images")
	store.now = func() time.Time { return time.Unix(0, 7) }

	pngHeader := "\x89PNG\r\n\x1a\n"
	key, err := store.Save(context.Background(), "cat.png", strings.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if key != "images/7-cat.png" {
		t.Errorf("Save() = %q, want %q", key, "images/7-cat.png")
	}
	if len(client.puts) != 1 {
		t.Fatalf("puts = %d, want 1", len(client.puts))
	}
	put := client.puts[0]
	if aws.StringValue(put.Bucket) != "feed-images" {
		t.Errorf("Bucket = %q, want %q", aws.StringValue(put.Bucket), "feed-images")
	}
	if aws.StringValue(put.ContentType) != "image/png" {
		t.Errorf("ContentType = %q, want image/png", aws.StringValue(put.ContentType))
	}
	if client.putBodies[0] != pngHeader {
		t.Errorf("uploaded body = %q, want %q", client.putBodies[0], pngHeader)
	}
}

func TestS3ImageStore_Delete(t *testing.T) {
	tests := []struct {
		name     string
		imageURL string
		wantKey  string
		wantErr  bool
	}{
		{name: "plain key", imageURL: "images/7-cat.png", wantKey: "images/7-cat.png"},
		{name: "leading slash", imageURL: "/images/7-cat.png", wantKey: "images/7-cat.png"},
		{name: "backslashes", imageURL: `images\7-cat.png`, wantKey: "images/7-cat.png"},
		{name: "outside prefix", imageURL: "other/7-cat.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeS3{}
			store := newS3ImageStore(client, "feed-images")

			err := store.Delete(context.Background(), tt.imageURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Delete() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if len(client.deletes) != 0 {
					t.Errorf("deletes = %v, want none", client.deletes)
				}
				return
			}
			if len(client.deletes) != 1 || client.deletes[0] != tt.wantKey {
				t.Errorf("deletes = %v, want [%s]", client.deletes, tt.wantKey)
			}
		})
	}
}

func TestS3ImageStore_ClientError(t *testing.T) {
	boom := errors.New("access denied")
	store := newS3ImageStore(&fakeS3{err: boom}, "feed-images")

	if _, err := store.Save(context.Background(), "cat.png", strings.NewReader("x")); !errors.Is(err, boom) {
		t.Errorf("Save error = %v, want %v", err, boom)
	}
	if err := store.Delete(context.Background(), "images/cat.png"); !errors.Is(err, boom) {
		t.Errorf("Delete error = %v, want %v", err, boom)
	}
}
