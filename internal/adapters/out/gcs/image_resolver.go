// internal/adapters/out/gcs/image_resolver.go
package gcs

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"cloud.google.com/go/storage"

	gcscommon "gamestore/internal/adapters/out/gcs/common"
	"gamestore/internal/application/usecase"
)

// ObjectChecker reports whether an object exists.
type ObjectChecker interface {
	Exists(ctx context.Context, bucket, object string) (bool, error)
}

// StorageChecker implements ObjectChecker with object attributes lookups.
type StorageChecker struct {
	Client *storage.Client
}

func (c StorageChecker) Exists(ctx context.Context, bucket, object string) (bool, error) {
	if c.Client == nil {
		return false, errors.New("gcs: storage client is nil")
	}
	_, err := c.Client.Bucket(bucket).Object(object).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return false, nil
	}
	return false, err
}

// ImageResolver maps catalog image references to public URLs.
//
// ref can be:
//   - http(s)://... (returned as is)
//   - gs://bucket/object or a storage.googleapis.com URL (public URL of that object)
//   - a site path such as "/images/crypto-charade-main.png": served from Bucket
//     when the object exists there, else left for the frontend to serve
//
// Existence checks are cached for the life of the process.
type ImageResolver struct {
	Bucket  string
	Checker ObjectChecker

	mu    sync.RWMutex
	cache map[string]string
}

var _ usecase.ImageResolver = (*ImageResolver)(nil)

func NewImageResolver(bucket string, checker ObjectChecker) *ImageResolver {
	return &ImageResolver{
		Bucket:  strings.TrimSpace(bucket),
		Checker: checker,
		cache:   make(map[string]string),
	}
}

func (r *ImageResolver) ResolveImage(ctx context.Context, ref string) string {
	p := strings.TrimSpace(ref)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		if b, obj, ok := gcscommon.ParseGCSURL(p); ok {
			return gcscommon.GCSPublicURL(b, obj)
		}
		return p
	}
	if b, obj, ok := gcscommon.ParseGCSURL(p); ok {
		return gcscommon.GCSPublicURL(b, obj)
	}
	if r == nil || r.Bucket == "" {
		return p
	}

	r.mu.RLock()
	if u, ok := r.cache[p]; ok {
		r.mu.RUnlock()
		return u
	}
	r.mu.RUnlock()

	object := strings.TrimLeft(p, "/")
	resolved := p
	if r.Checker != nil {
		ok, err := r.Checker.Exists(ctx, r.Bucket, object)
		if err != nil {
			// not cached; a later call retries
			log.Printf("[gcs] WARN image lookup failed bucket=%s object=%s err=%v", r.Bucket, object, err)
			return p
		}
		if ok {
			resolved = gcscommon.GCSPublicURL(r.Bucket, object)
		}
	} else {
		resolved = gcscommon.GCSPublicURL(r.Bucket, object)
	}

	r.mu.Lock()
	r.cache[p] = resolved
	r.mu.Unlock()
	return resolved
}
