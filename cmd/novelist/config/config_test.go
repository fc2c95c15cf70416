package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/novelist/cmd/novelist/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "novelist-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .novelist dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".novelist"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "client.mode", "production")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".novelist", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`mode = "production"`))
			Expect(ansi.Strip(out.String())).To(ContainSubstring("Set client.mode = production"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "proxy.provider", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects invalid values", func() {
			Expect(run("set", "client.mode", "staging")).To(HaveOccurred())
			Expect(run("set", "auth.failure_statuses", "401,abc")).To(HaveOccurred())
			Expect(run("set", "auth.refresh_timeout", "later")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "client.mode")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("reports defaults when no config file exists", func() {
			Expect(run("get", "client.api_target")).To(Succeed())

			text := ansi.Strip(out.String())
			Expect(text).To(ContainSubstring("No config file found"))
			Expect(text).To(ContainSubstring("http://localhost:8000"))
		})

		It("gets a value that was set", func() {
			Expect(run("set", "auth.failure_statuses", "401")).To(Succeed())
			out.Reset()

			Expect(run("get", "auth.failure_statuses")).To(Succeed())
			text := ansi.Strip(out.String())
			Expect(text).To(ContainSubstring("Config file:"))
			Expect(text).To(ContainSubstring("auth.failure_statuses  401"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "nonexistent")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("list")).To(Succeed())

			text := ansi.Strip(out.String())
			Expect(text).To(ContainSubstring(`client.api_target       = "http://localhost:8000"`))
			Expect(text).To(ContainSubstring(`auth.failure_statuses   = "401,422"`))
			Expect(text).To(ContainSubstring("generator.partial_event"))
		})

		It("rejects arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
