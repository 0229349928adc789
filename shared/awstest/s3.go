// Package awstest runs an in-process S3 endpoint for worker tests.
package awstest

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// S3Server keeps path-style buckets in memory. It speaks just enough of the
// REST API for ListObjects, DeleteObjects, PutObject and DeleteBucket.
type S3Server struct {
	*httptest.Server

	mu      sync.Mutex
	buckets map[string]map[string][]byte
	// DeleteBucketCode forces DeleteBucket to fail with this S3 error code.
	DeleteBucketCode string
	// DeleteObjectsStatus forces DeleteObjects to fail with this status.
	DeleteObjectsStatus int
}

func NewS3Server() *S3Server {
	s := &S3Server{buckets: map[string]map[string][]byte{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Session targets the server with static credentials and no SDK retries.
func (s *S3Server) Session() *session.Session {
	return session.Must(session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(s.URL),
		Credentials:      credentials.NewStaticCredentials("test", "test", ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(true),
		MaxRetries:       aws.Int(0),
	}))
}

func (s *S3Server) CreateBucket(name string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := map[string][]byte{}
	for _, k := range keys {
		b[k] = []byte("{}")
	}
	s.buckets[name] = b
}

func (s *S3Server) BucketExists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[name]
	return ok
}

// Object returns a stored body and whether it exists.
func (s *S3Server) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, false
	}
	body, ok := b[key]
	return body, ok
}

func (s *S3Server) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *S3Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	objects, ok := s.buckets[bucket]
	if !ok {
		writeError(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	_, isDelete := r.URL.Query()["delete"]
	switch {
	case r.Method == http.MethodGet && key == "":
		s.listObjects(w, bucket, objects)
	case r.Method == http.MethodPost && isDelete:
		s.deleteObjects(w, r, objects)
	case r.Method == http.MethodPut && key != "":
		body, _ := ioutil.ReadAll(r.Body)
		objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && key == "":
		s.deleteBucket(w, bucket, objects)
	default:
		writeError(w, http.StatusNotImplemented, "NotImplemented", r.Method+" "+r.URL.String())
	}
}

func (s *S3Server) listObjects(w http.ResponseWriter, bucket string, objects map[string][]byte) {
	var keys []string
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&sb, "<Name>%s</Name><IsTruncated>false</IsTruncated>", bucket)
	for _, k := range keys {
		fmt.Fprintf(&sb, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(objects[k]))
	}
	sb.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(sb.String()))
}

func (s *S3Server) deleteObjects(w http.ResponseWriter, r *http.Request, objects map[string][]byte) {
	if s.DeleteObjectsStatus != 0 {
		writeError(w, s.DeleteObjectsStatus, "AccessDenied", "Access Denied")
		return
	}

	body, _ := ioutil.ReadAll(r.Body)
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	for _, chunk := range strings.Split(string(body), "<Key>")[1:] {
		k := strings.SplitN(chunk, "</Key>", 2)[0]
		delete(objects, k)
		fmt.Fprintf(&sb, "<Deleted><Key>%s</Key></Deleted>", k)
	}
	sb.WriteString(`</DeleteResult>`)

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(sb.String()))
}

func (s *S3Server) deleteBucket(w http.ResponseWriter, bucket string, objects map[string][]byte) {
	if s.DeleteBucketCode != "" {
		writeError(w, http.StatusConflict, s.DeleteBucketCode, "forced failure")
		return
	}
	if len(objects) > 0 {
		writeError(w, http.StatusConflict, "BucketNotEmpty", "The bucket you tried to delete is not empty")
		return
	}
	delete(s.buckets, bucket)
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, msg)
}
