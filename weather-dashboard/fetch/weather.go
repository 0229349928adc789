package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Jepkosgei3/DevOps-30Days/shared/fetch"
	log "github.com/sirupsen/logrus"
)

// Snapshot maps each configured city to the raw weather API payload, in
// configured order.
type Snapshot struct {
	Cities []string
	Data   map[string]json.RawMessage
}

type Report struct {
	Failed []string
}

type Fetcher struct {
	cfg       Config
	client    *http.Client
	stdFields log.Fields
}

func NewFetcher(cfg Config, client *http.Client, stdFields log.Fields) *Fetcher {
	return &Fetcher{cfg: cfg, client: client, stdFields: stdFields}
}

// FetchCity always returns a JSON value for the city. A body the API sent is
// kept verbatim even when err reports a non-2xx status; transport failures and
// non-JSON bodies are replaced by an {"error": ...} object.
func (f *Fetcher) FetchCity(ctx context.Context, city string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", f.cfg.APIKey)
	q.Set("units", f.cfg.Units)

	status, body, err := fetch.GetRaw(ctx, f.client, f.cfg.BaseURL, q)
	if err != nil {
		return errorEntry(err), err
	}

	if !json.Valid(body) {
		err = fmt.Errorf("non-JSON response(%d) for %s", status, city)
		return errorEntry(err), err
	}

	if status < 200 || status >= 300 {
		return json.RawMessage(body), &fetch.StatusError{URL: f.cfg.BaseURL, StatusCode: status, Body: body}
	}
	return json.RawMessage(body), nil
}

// Snapshot fetches every city one after another. The result always holds one
// entry per configured city.
func (f *Fetcher) Snapshot(ctx context.Context) (*Snapshot, *Report) {
	snap := &Snapshot{Data: map[string]json.RawMessage{}}
	report := &Report{}

	for _, city := range f.cfg.Cities {
		data, err := f.FetchCity(ctx, city)
		if _, seen := snap.Data[city]; !seen {
			snap.Cities = append(snap.Cities, city)
		}
		snap.Data[city] = data

		if err != nil {
			report.Failed = append(report.Failed, city)
			if se, ok := err.(*fetch.StatusError); ok {
				log.WithFields(f.stdFields).
					WithFields(log.Fields{"city": city, "status": se.StatusCode}).
					Warn("weather api returned an error payload")
			} else {
				log.WithFields(f.stdFields).
					WithFields(log.Fields{"city": city, "err": err}).
					Error("weather fetch failed")
			}
			continue
		}
		log.WithFields(f.stdFields).WithFields(log.Fields{"city": city}).Info("fetched weather")
	}

	return snap, report
}

// MarshalIndent renders the snapshot with four space indentation, keeping the
// configured city order.
func (s *Snapshot) MarshalIndent() ([]byte, error) {
	if len(s.Cities) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, city := range s.Cities {
		k, err := json.Marshal(city)
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(k)
		buf.WriteString(": ")
		// Indent copies trailing whitespace through, and API bodies often end in a newline
		if err := json.Indent(&buf, bytes.TrimSpace(s.Data[city]), "    ", "    "); err != nil {
			return nil, fmt.Errorf("invalid payload for %s: %w", city, err)
		}
		if i < len(s.Cities)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// WriteSnapshot replaces path unconditionally. The temp file lives next to the
// target so the rename stays on one filesystem.
func WriteSnapshot(path string, s *Snapshot) error {
	b, err := s.MarshalIndent()
	if err != nil {
		return err
	}

	tmp, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("unable to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("unable to replace %s: %w", path, err)
	}
	return nil
}

func errorEntry(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}
