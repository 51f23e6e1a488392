package main

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/foodgram/config"
)

func TestBuildImageStoreWithoutBackend(t *testing.T) {
	for _, kind := range []string{"", "none", "s3", "gcs"} {
		t.Run(kind, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			store, closeFn := buildImageStore(context.Background(), &config.Config{ImageStorage: kind}, logger)
			closeFn()

			assert.Nil(t, store)
			for _, e := range hook.AllEntries() {
				assert.NotEqual(t, logrus.WarnLevel, e.Level, e.Message)
			}
		})
	}
}

func TestBuildImageStoreUnknownBackend(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	store, _ := buildImageStore(context.Background(), &config.Config{ImageStorage: "ftp"}, logger)

	assert.Nil(t, store)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[0].Level)
	assert.Contains(t, hook.AllEntries()[0].Message, `"ftp"`)
}
