package atlas

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

func TestScale(t *testing.T) {
	Convey("Given an Admin API that accepts the request", t, func() {
		var (
			method, path, accept string
			received             map[string]any
		)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			accept = r.Header.Get("Accept")

			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &received)

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"name":"Cluster0"}`))
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL+"/api/atlas/v2/", "public", "private", WithHTTPClient(srv.Client()))
		So(err, ShouldBeNil)

		err = client.Scale(context.Background(), "proj123", "Cluster0", "M30")
		So(err, ShouldBeNil)

		Convey("It should PATCH the cluster with the new instance size", func() {
			So(method, ShouldEqual, http.MethodPatch)
			So(path, ShouldEqual, "/api/atlas/v2/groups/proj123/clusters/Cluster0")
			So(accept, ShouldEqual, acceptHeader)

			settings := received["providerSettings"].(map[string]any)
			So(settings["instanceSizeName"], ShouldEqual, "M30")
		})
	})

	Convey("Given an Admin API that rejects the request", t, func() {
		status := http.StatusUnauthorized

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":401,"reason":"Unauthorized"}`))
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL, "public", "private", WithHTTPClient(srv.Client()))
		So(err, ShouldBeNil)

		Convey("A 401 should be an auth error", func() {
			err := client.Scale(context.Background(), "proj", "Cluster0", "M10")
			So(errors.Is(err, errors.ErrAuth), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Unauthorized")
		})

		Convey("A 400 should be a malformed request", func() {
			status = http.StatusBadRequest

			err := client.Scale(context.Background(), "proj", "Cluster0", "M0")
			So(errors.Is(err, errors.ErrMalformed), ShouldBeTrue)
		})

		Convey("A 503 should be transient", func() {
			status = http.StatusServiceUnavailable

			err := client.Scale(context.Background(), "proj", "Cluster0", "M10")
			So(errors.Is(err, errors.ErrTransient), ShouldBeTrue)
		})
	})
}
