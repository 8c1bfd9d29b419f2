package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/publicsuffix"
)

// fileJar is a cookie jar for one portal that is loaded from and saved to a
// JSON file.
type fileJar struct {
	*cookiejar.Jar
	path string
	site *url.URL
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func openJar(path, baseURL string) (*fileJar, error) {
	site, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &fileJar{Jar: jar, path: path, site: site}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var stored map[string][]storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode cookies %s: %w", path, err)
	}
	cookies := make([]*http.Cookie, 0, len(stored[site.Host]))
	for _, c := range stored[site.Host] {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(site, cookies)
	return j, nil
}

// save writes the cookies for the portal, keeping entries for other hosts.
func (j *fileJar) save() error {
	stored := map[string][]storedCookie{}
	if raw, err := os.ReadFile(j.path); err == nil {
		_ = json.Unmarshal(raw, &stored)
	}

	current := j.Cookies(j.site)
	if len(current) == 0 {
		delete(stored, j.site.Host)
	} else {
		list := make([]storedCookie, 0, len(current))
		for _, c := range current {
			list = append(list, storedCookie{Name: c.Name, Value: c.Value})
		}
		stored[j.site.Host] = list
	}

	encoded, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, encoded, 0o600)
}

// forget drops every cookie for the portal.
func (j *fileJar) forget() {
	for _, c := range j.Cookies(j.site) {
		j.SetCookies(j.site, []*http.Cookie{{Name: c.Name, Path: "/", MaxAge: -1}})
	}
}
