package testutil_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/broady/restep/testutil"
)

func TestFakeDoer_RecordsRequestsInOrder(t *testing.T) {
	doer := testutil.NewFakeDoer(t,
		testutil.NewStringResponse(200, "first"),
		testutil.NewJSONResponse(t, 201, map[string]int{"id": 1}),
	)

	req1, _ := http.NewRequest("POST", "http://x/a", strings.NewReader("payload"))
	resp1, err := doer.Do(req1)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp1.Body)
	if string(data) != "first" || resp1.Request != req1 {
		t.Errorf("unexpected first response %q", data)
	}

	req2, _ := http.NewRequest("GET", "http://x/b", nil)
	resp2, err := doer.Do(req2)
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != 201 || resp2.Header.Get("Content-Type") != "application/json" {
		t.Errorf("unexpected second response %d %v", resp2.StatusCode, resp2.Header)
	}

	if got := doer.Bodies(); len(got) != 2 || got[0] != "payload" || got[1] != "" {
		t.Errorf("unexpected bodies %q", got)
	}
	if got := doer.Requests(); len(got) != 2 || got[1].URL.Path != "/b" {
		t.Errorf("unexpected requests %v", got)
	}
}

func TestFakeDoer_FailWith(t *testing.T) {
	boom := errors.New("boom")
	doer := testutil.NewFakeDoer(t).FailWith(boom)

	req, _ := http.NewRequest("GET", "http://x/", nil)
	if _, err := doer.Do(req); !errors.Is(err, boom) {
		t.Errorf("expected queued error, got %v", err)
	}
}
