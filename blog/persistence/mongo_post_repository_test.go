package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/dfryer1193/feedapi/blog/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseObjectID(t *testing.T) {
	valid := bson.NewObjectID()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid hex", id: valid.Hex()},
		{name: "empty", id: "", wantErr: true},
		{name: "uuid", id: "0b4e7c1a-3d8f-4f1e-9a7b-2c5d6e7f8a9b", wantErr: true},
		{name: "short hex", id: "abc123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oid, err := parseObjectID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrPostNotFound) {
					t.Errorf("parseObjectID(%q) error = %v, want ErrPostNotFound", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseObjectID(%q) error = %v", tt.id, err)
			}
			if oid != valid {
				t.Errorf("parseObjectID(%q) = %v, want %v", tt.id, oid, valid)
			}
		})
	}
}

func TestPostDocument_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	post := &domain.Post{
		Title:    "A first post",
		Content:  "Some content here",
		ImageURL: "images/1-cat.png",
		Creator:  domain.Creator{Name: domain.DefaultCreatorName},
	}

	doc := newPostDocument(post)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var keys bson.M
	if err := bson.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("Unmarshal into map failed: %v", err)
	}
	for _, k := range []string{"_id", "title", "content", "imageUrl", "creator", "createdAt", "updatedAt"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("document missing key %q", k)
		}
	}

	var decoded postDocument
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	got := decoded.toDomain()
	if got.ID != doc.ID.Hex() {
		t.Errorf("ID = %q, want %q", got.ID, doc.ID.Hex())
	}
	if got.Title != post.Title || got.Content != post.Content || got.ImageURL != post.ImageURL {
		t.Errorf("fields not preserved: %+v", got)
	}
	if got.Creator.Name != domain.DefaultCreatorName {
		t.Errorf("Creator.Name = %q, want %q", got.Creator.Name, domain.DefaultCreatorName)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}
