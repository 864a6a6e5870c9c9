package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/sarchlab/cachesim/logging"
)

var _ = Describe("Logging", func() {
	Describe("New", func() {
		It("should write JSON records at or above the level", func() {
			var buf bytes.Buffer
			logger := logging.New(logging.Config{
				Level:  zerolog.InfoLevel,
				Format: "json",
			}, &buf)

			logger.Debug().Msg("hidden")
			logger.Info().Str("op", "read").Msg("access")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record["message"]).To(Equal("access"))
			Expect(record["op"]).To(Equal("read"))
			Expect(record["level"]).To(Equal("info"))
		})

		It("should write plain console records", func() {
			var buf bytes.Buffer
			logger := logging.New(logging.DefaultConfig(), &buf)

			logger.Warn().Msg("backing store small")
			Expect(buf.String()).To(ContainSubstring("backing store small"))
			Expect(buf.String()).NotTo(ContainSubstring("\x1b["))
		})
	})

	Describe("environment", func() {
		var oldLevel, oldFormat string

		BeforeEach(func() {
			oldLevel = os.Getenv(logging.EnvLevel)
			oldFormat = os.Getenv(logging.EnvFormat)
		})

		AfterEach(func() {
			_ = os.Setenv(logging.EnvLevel, oldLevel)
			_ = os.Setenv(logging.EnvFormat, oldFormat)
		})

		It("should override level and format", func() {
			Expect(os.Setenv(logging.EnvLevel, "debug")).To(Succeed())
			Expect(os.Setenv(logging.EnvFormat, "json")).To(Succeed())

			cfg := logging.ConfigFromEnv(logging.DefaultConfig())
			Expect(cfg.Level).To(Equal(zerolog.DebugLevel))
			Expect(cfg.Format).To(Equal("json"))
		})

		It("should ignore unknown values", func() {
			Expect(os.Setenv(logging.EnvLevel, "loud")).To(Succeed())
			Expect(os.Setenv(logging.EnvFormat, "xml")).To(Succeed())

			cfg := logging.ConfigFromEnv(logging.DefaultConfig())
			Expect(cfg).To(Equal(logging.DefaultConfig()))
		})
	})

	Describe("context", func() {
		It("should return a disabled logger when none is attached", func() {
			logger := logging.FromContext(context.Background())
			Expect(logger.GetLevel()).To(Equal(zerolog.Disabled))
		})

		It("should add session and component fields", func() {
			var buf bytes.Buffer
			logger := logging.New(logging.Config{Level: zerolog.InfoLevel, Format: "json"}, &buf)

			ctx := logging.WithContext(context.Background(), logger)
			ctx = logging.WithSession(ctx, "s1")
			ctx = logging.WithComponent(ctx, "cache")
			logging.FromContext(ctx).Info().Msg("hello")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record["session"]).To(Equal("s1"))
			Expect(record["component"]).To(Equal("cache"))
		})

		It("should generate distinct session IDs", func() {
			Expect(logging.NewSessionID()).NotTo(Equal(logging.NewSessionID()))
		})
	})
})
