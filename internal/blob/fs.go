package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// sidecarSuffix is appended to a blob's data file to form its metadata file.
const sidecarSuffix = ".meta"

// FilesystemStore keeps blobs as plain files under a root directory. Each
// key becomes a relative path, with content type and user metadata stored
// next to the data in a JSON sidecar. Concurrent writers to the same key
// are only protected by the create-only check.
type FilesystemStore struct {
	root string
}

// NewFilesystem opens (and if necessary creates) a store rooted at root.
// An empty root falls back to ./blobdata.
func NewFilesystem(root string) (*FilesystemStore, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Driver() Driver { return DriverFilesystem }

// sidecar is the on-disk JSON shape of a blob's metadata file.
type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// cleanKey rejects anything that could resolve outside the root.
func cleanKey(key string) (string, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return "", fmt.Errorf("blank blob key")
	case strings.HasPrefix(key, "/"):
		return "", fmt.Errorf("blob key %q must be relative", key)
	case strings.Contains(key, ".."):
		return "", fmt.Errorf("blob key %q may not contain '..'", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("blob key %q escapes the store root", key)
	}
	return clean, nil
}

// resolve maps a key to its data and sidecar paths under the root.
func (s *FilesystemStore) resolve(key string) (data, meta string, err error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data = filepath.Join(s.root, k)
	return data, data + sidecarSuffix, nil
}

func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	data, meta, err := s.resolve(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(data); err == nil {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(data), 0o755); err != nil {
		return Info{}, err
	}

	// Spool through a temp file so the digest and size are known before the
	// blob appears under its final name.
	digest := sha256.New()
	size, tmpName, err := s.spool(filepath.Dir(data), io.TeeReader(r, digest))
	if err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmpName, data); err != nil {
		_ = os.Remove(tmpName)
		return Info{}, err
	}

	now := time.Now().UTC()
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    cloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(digest.Sum(nil)),
		Size:        size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	encoded, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(meta, encoded, 0o644); err != nil {
		return Info{}, err
	}
	return s.infoFor(key, sc), nil
}

// spool copies r into a fresh temp file in dir and reports the byte count
// and the temp file's name. The caller owns the file on success.
func (s *FilesystemStore) spool(dir string, r io.Reader) (int64, string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, "", err
	}
	size, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, "", err
	}
	return size, tmp.Name(), nil
}

func (s *FilesystemStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	data, meta, err := s.resolve(key)
	if err != nil {
		return Info{}, nil, err
	}
	file, err := os.Open(data)
	if err != nil {
		return Info{}, nil, err
	}
	sc, err := loadSidecar(meta)
	if err != nil {
		_ = file.Close()
		return Info{}, nil, err
	}
	return s.infoFor(key, sc), file, nil
}

func (s *FilesystemStore) Head(ctx context.Context, key string) (Info, error) {
	_, meta, err := s.resolve(key)
	if err != nil {
		return Info{}, err
	}
	sc, err := loadSidecar(meta)
	if err != nil {
		return Info{}, err
	}
	return s.infoFor(key, sc), nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) (bool, error) {
	data, meta, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(data); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(data); err != nil {
		return false, err
	}
	_ = os.Remove(meta)
	return true, nil
}

func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	walk := func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, sidecarSuffix) {
			return nil
		}
		sc, err := loadSidecar(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, sidecarSuffix))
		if err != nil {
			return err
		}
		if key := filepath.ToSlash(rel); prefix == "" || strings.HasPrefix(key, prefix) {
			infos = append(infos, s.infoFor(key, sc))
		}
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL hands out an unauthenticated pseudo URL, which is all a local
// directory can offer. Only GET is supported.
func (s *FilesystemStore) PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", ErrUnsupported
	}
	return s.localURL(key), nil
}

func (s *FilesystemStore) infoFor(key string, sc sidecar) Info {
	return Info{
		Key:          key,
		Size:         sc.Size,
		ContentType:  sc.ContentType,
		ETag:         sc.ETag,
		Metadata:     cloneMetadata(sc.Metadata),
		LastModified: sc.UpdatedAt,
		URL:          s.localURL(key),
	}
}

func (s *FilesystemStore) localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func loadSidecar(path string) (sidecar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}, err
	}
	return sc, nil
}
