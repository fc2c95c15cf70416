package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RefreshClient", func() {
	var (
		srv     *httptest.Server
		handler http.HandlerFunc
		client  *RefreshClient
	)

	BeforeEach(func() {
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = NewRefreshClient(&RefreshClientConfig{BaseURL: srv.URL + "/"})
	})

	AfterEach(func() {
		srv.Close()
	})

	Describe("Refresh", func() {
		It("posts the refresh token as bearer and returns the new access token", func() {
			var method, path, authz string
			handler = func(w http.ResponseWriter, r *http.Request) {
				method, path, authz = r.Method, r.URL.Path, r.Header.Get("Authorization")
				_, _ = io.WriteString(w, `{"access_token":"new-access"}`)
			}

			token, err := client.Refresh(context.Background(), "refresh-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("new-access"))
			Expect(method).To(Equal(http.MethodPost))
			Expect(path).To(Equal(DefaultRefreshPath))
			Expect(authz).To(Equal("Bearer refresh-1"))
		})

		It("reports the server's detail on failure", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Refresh token revoked"}`)
			}

			_, err := client.Refresh(context.Background(), "refresh-1")
			Expect(err).To(MatchError(ContainSubstring("status 401: Refresh token revoked")))
		})

		It("falls back to the raw body when there is no detail", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, "upstream down\n")
			}

			_, err := client.Refresh(context.Background(), "refresh-1")
			Expect(err).To(MatchError(ContainSubstring("status 502: upstream down")))
		})

		It("rejects a response without an access token", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			}

			_, err := client.Refresh(context.Background(), "refresh-1")
			Expect(err).To(MatchError(ContainSubstring("no access_token")))
		})

		It("uses a custom refresh path", func() {
			var path string
			handler = func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				_, _ = io.WriteString(w, `{"access_token":"a"}`)
			}
			client = NewRefreshClient(&RefreshClientConfig{BaseURL: srv.URL, RefreshPath: "/v2/token"})

			_, err := client.Refresh(context.Background(), "r")
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("/v2/token"))
			Expect(client.RefreshURL()).To(Equal(srv.URL + "/v2/token"))
		})
	})

	Describe("DevPing", func() {
		It("returns the issued token pair", func() {
			var method, path string
			handler = func(w http.ResponseWriter, r *http.Request) {
				method, path = r.Method, r.URL.Path
				_, _ = io.WriteString(w, `{"access_token":"a","refresh_token":"r"}`)
			}

			pair, err := client.DevPing(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(pair).To(Equal(TokenPair{AccessToken: "a", RefreshToken: "r"}))
			Expect(method).To(Equal(http.MethodGet))
			Expect(path).To(Equal(DefaultDevPingPath))
		})

		It("requires both tokens", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"access_token":"a"}`)
			}

			_, err := client.DevPing(context.Background())
			Expect(err).To(MatchError(ContainSubstring("missing tokens")))
		})
	})
})

var _ = Describe("Policy", func() {
	It("defaults to 401 and 422 with the two expiry details", func() {
		p := DefaultPolicy()
		Expect(p.IsFailureStatus(http.StatusUnauthorized)).To(BeTrue())
		Expect(p.IsFailureStatus(http.StatusUnprocessableEntity)).To(BeTrue())
		Expect(p.IsFailureStatus(http.StatusForbidden)).To(BeFalse())
		Expect(p.IsExpiredDetail(DetailSignatureExpired)).To(BeTrue())
		Expect(p.IsExpiredDetail(DetailTokenInvalid)).To(BeTrue())
		Expect(p.IsExpiredDetail("Not authenticated")).To(BeFalse())
		Expect(p.IsExpiredDetail("")).To(BeFalse())
	})
})

var _ = Describe("MemoryStore", func() {
	It("replaces the access token and keeps the refresh token", func() {
		s := NewMemoryStore(TokenPair{AccessToken: "a", RefreshToken: "r"})
		Expect(s.SetAccessToken("b")).To(Succeed())
		Expect(s.Tokens()).To(Equal(TokenPair{AccessToken: "b", RefreshToken: "r"}))

		Expect(s.Clear()).To(Succeed())
		Expect(s.Tokens()).To(Equal(TokenPair{}))
	})
})
