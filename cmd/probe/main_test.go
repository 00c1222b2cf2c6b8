package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSplitRefs(t *testing.T) {
	convey.Convey("Given references as arguments", t, func() {
		convey.Convey("Then comma lists and separate arguments are both accepted", func() {
			convey.So(splitRefs([]string{"3212,4029", " 2651 ", ",,"}), convey.ShouldResemble, []string{"3212", "4029", "2651"})
			convey.So(splitRefs(nil), convey.ShouldBeNil)
		})
	})
}

func TestResultsCommand(t *testing.T) {
	convey.Convey("Given a service with no stored results", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		convey.Convey("Then the results command says so", func() {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"results", "--url", srv.URL, "--limit", "5"})
			convey.So(rootCmd.Execute(), convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, "No stored results.")
		})
	})
}
