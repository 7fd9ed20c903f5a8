package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const indexerPath = "/indexer/1.0/"

// Directory asks a Peppol Directory to (re)index or drop participants.
type Directory struct {
	client  *Client
	baseURL string
}

func NewDirectory(c *Client, baseURL string) *Directory {
	return &Directory{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Index requests indexing of the participant given in URI form.
func (d *Directory) Index(ctx context.Context, participantURI string) error {
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	status, body, err := d.client.Do(ctx, http.MethodPut, d.baseURL+indexerPath, header, []byte(participantURI))
	return checkStatus(status, body, err)
}

// Remove requests removal of the participant given in URI form.
func (d *Directory) Remove(ctx context.Context, participantURI string) error {
	status, body, err := d.client.Do(ctx, http.MethodDelete, d.baseURL+indexerPath+url.PathEscape(participantURI), nil, nil)
	return checkStatus(status, body, err)
}

func checkStatus(status int, body []byte, err error) error {
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{StatusCode: status, Body: truncate(string(body), 256)}
	}
	return nil
}
