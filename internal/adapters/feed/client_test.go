package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func testOptions() []Option {
	return []Option{WithRequestsPerMinute(0), WithBackoff(time.Millisecond), WithMaxRetries(2)}
}

func TestClientRetry(t *testing.T) {
	Convey("Given an upstream that fails before succeeding", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/flaky":
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				_, _ = w.Write([]byte("ok"))
			case "/missing":
				calls.Add(1)
				http.NotFound(w, r)
			case "/limited":
				calls.Add(1)
				w.WriteHeader(http.StatusTooManyRequests)
			}
		}))
		Reset(srv.Close)
		c := newClient(testOptions())

		Convey("retryable statuses are retried", func() {
			body, err := c.get(context.Background(), srv.URL+"/flaky")
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "ok")
			So(calls.Load(), ShouldEqual, 3)
		})

		Convey("a 404 fails without retrying", func() {
			_, err := c.get(context.Background(), srv.URL+"/missing")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "status=404")
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("retries stop after the limit", func() {
			_, err := c.get(context.Background(), srv.URL+"/limited")
			So(errors.Is(err, errTransient), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 3)
		})

		Convey("a cancelled context stops the request", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := c.get(ctx, srv.URL+"/flaky")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFetchError(t *testing.T) {
	Convey("FetchError matches the sentinel and the cause", t, func() {
		cause := errors.New("dial tcp: refused")
		err := fetchErr("sleeper", cause)
		So(errors.Is(err, ErrFetch), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)

		var fe *FetchError
		So(errors.As(err, &fe), ShouldBeTrue)
		So(fe.Source, ShouldEqual, "sleeper")
		So(err.Error(), ShouldEqual, "fetch sleeper: dial tcp: refused")
		So(fetchErr("x", nil), ShouldBeNil)
	})
}

func TestTruncate(t *testing.T) {
	if got := truncate([]byte("abcdef"), 3); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate([]byte("ab"), 3); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
