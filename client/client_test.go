package client

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMLCreateParticipant(t *testing.T) {
	var (
		gotAction string
		gotPath   string
		gotAgent  string
		gotBody   struct {
			Body struct {
				Create struct {
					Participant struct {
						Scheme string `xml:"scheme,attr"`
						Value  string `xml:",chardata"`
					} `xml:"ParticipantIdentifier"`
					SMPID string `xml:"ServiceMetadataPublisherID"`
				} `xml:"CreateParticipantIdentifier"`
			} `xml:"Body"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		_ = xml.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sml := NewSML(New(Options{UserAgent: "smp-test"}), srv.URL+"/", "SMP-1")
	require.NoError(t, sml.CreateParticipant(context.Background(), "iso6523-actorid-upis", "9915:test"))

	assert.Equal(t, "/manageparticipantidentifier", gotPath)
	assert.Contains(t, gotAction, "createIn")
	assert.Equal(t, "smp-test", gotAgent)
	assert.Equal(t, "iso6523-actorid-upis", gotBody.Body.Create.Participant.Scheme)
	assert.Equal(t, "9915:test", gotBody.Body.Create.Participant.Value)
	assert.Equal(t, "SMP-1", gotBody.Body.Create.SMPID)
}

func TestSMLFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Participant already exists</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`)
	}))
	defer srv.Close()

	sml := NewSML(New(Options{}), srv.URL, "SMP-1")
	err := sml.DeleteParticipant(context.Background(), "iso6523-actorid-upis", "9915:test")
	var fault *SOAPFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "Participant already exists", fault.Message)
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	sml := NewSML(New(Options{RequestTimeout: 20 * time.Millisecond}), srv.URL, "SMP-1")
	assert.Error(t, sml.CreateParticipant(context.Background(), "iso6523-actorid-upis", "9915:test"))
}

func TestDirectory(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, r.Method+" "+r.URL.EscapedPath()+" "+string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dir := NewDirectory(New(Options{}), srv.URL)
	require.NoError(t, dir.Index(context.Background(), "iso6523-actorid-upis::9915:test"))
	require.NoError(t, dir.Remove(context.Background(), "iso6523-actorid-upis::9915:test"))

	assert.Equal(t, []string{
		"PUT /indexer/1.0/ iso6523-actorid-upis::9915:test",
		"DELETE /indexer/1.0/iso6523-actorid-upis::9915:test ",
	}, calls)
}

func TestDirectoryStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewDirectory(New(Options{}), srv.URL).Index(context.Background(), "x::y")
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusForbidden, status.StatusCode)
}
