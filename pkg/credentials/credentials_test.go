package credentials_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "credentials-test-*")
		Expect(err).NotTo(HaveOccurred())

		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("targets tokens.toml in the override directory", func() {
			Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "tokens.toml")))
		})
	})

	Describe("Load", func() {
		It("returns empty tokens when no file exists", func() {
			tokens, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.Token).To(BeEmpty())
			Expect(tokens.RefreshToken).To(BeEmpty())
		})

		It("loads existing tokens", func() {
			data := `version = 0
token = "access-1"
refresh_token = "refresh-1"
`
			Expect(os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)).To(Succeed())

			pair, err := mgr.Tokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(pair).To(Equal(auth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(mgr.GetTarget(), []byte("not valid [[["), 0o600)).To(Succeed())

			tokens, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(tokens).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("returns error for nil tokens", func() {
			Expect(mgr.Save(nil)).NotTo(Succeed())
		})
	})

	Describe("TokenStore", func() {
		It("persists the pair with restricted permissions", func() {
			Expect(mgr.SetTokens(auth.TokenPair{AccessToken: "a", RefreshToken: "r"})).To(Succeed())

			info, err := os.Stat(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			data, err := os.ReadFile(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`token = "a"`))
			Expect(string(data)).To(ContainSubstring(`refresh_token = "r"`))
		})

		It("replaces only the access token on refresh", func() {
			Expect(mgr.SetTokens(auth.TokenPair{AccessToken: "a", RefreshToken: "r"})).To(Succeed())
			Expect(mgr.SetAccessToken("b")).To(Succeed())

			other, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Tokens()).To(Equal(auth.TokenPair{AccessToken: "b", RefreshToken: "r"}))
		})

		It("removes the file on Clear", func() {
			Expect(mgr.SetTokens(auth.TokenPair{AccessToken: "a", RefreshToken: "r"})).To(Succeed())
			Expect(mgr.Clear()).To(Succeed())

			Expect(mgr.GetTarget()).NotTo(BeAnExistingFile())
			Expect(mgr.Tokens()).To(Equal(auth.TokenPair{}))
		})

		It("clears without a file", func() {
			Expect(mgr.Clear()).To(Succeed())
		})
	})

	Describe("Watch", func() {
		It("picks up tokens written by another process", func() {
			Expect(mgr.Tokens()).To(Equal(auth.TokenPair{}))

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- mgr.Watch(ctx) }()
			DeferCleanup(func() {
				cancel()
				Eventually(done).Should(Receive(MatchError(context.Canceled)))
			})

			other, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Eventually(func() (auth.TokenPair, error) {
				// Rewritten until the watcher has been registered.
				if err := other.SetTokens(auth.TokenPair{AccessToken: "x", RefreshToken: "y"}); err != nil {
					return auth.TokenPair{}, err
				}
				return mgr.Tokens()
			}).WithTimeout(5 * time.Second).Should(Equal(auth.TokenPair{AccessToken: "x", RefreshToken: "y"}))
		})

		It("returns when the context ends", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := mgr.Watch(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})
})

var _ = Describe("ParseClaims", func() {
	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	It("decodes subject, type and times without verifying", func() {
		exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
		token := sign(jwt.MapClaims{
			"sub":  "writer@example.com",
			"type": "access",
			"iat":  exp.Add(-15 * time.Minute).Unix(),
			"exp":  exp.Unix(),
		})

		claims, err := credentials.ParseClaims(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Subject).To(Equal("writer@example.com"))
		Expect(claims.Type).To(Equal("access"))
		Expect(claims.ExpiresAt.Equal(exp)).To(BeTrue())
		Expect(claims.Expired(exp.Add(-time.Second))).To(BeFalse())
		Expect(claims.Expired(exp)).To(BeTrue())
	})

	It("never expires a token without exp", func() {
		claims, err := credentials.ParseClaims(sign(jwt.MapClaims{"sub": "a"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Expired(time.Now())).To(BeFalse())
	})

	It("rejects malformed tokens", func() {
		_, err := credentials.ParseClaims("not-a-jwt")
		Expect(err).To(HaveOccurred())

		_, err = credentials.ParseClaims("")
		Expect(err).To(HaveOccurred())
	})
})
