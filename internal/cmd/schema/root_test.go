package schema

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbolytics/cleaner/internal/parquet"
	"gopkg.in/yaml.v3"
)

func TestSchemaCommand(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.Execute())

		var doc struct {
			Schema parquet.Schema `yaml:"schema"`
		}
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
		assert.Equal(t, parquet.FlatRecordSchema(), doc.Schema)
		assert.Equal(t, "code", doc.Schema[0].Name)
		assert.Equal(t, "product", doc.Schema[6].Name)
	})

	t.Run("tags", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"-o", "tags"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "name=price, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED\n")
	})

	t.Run("unknown", func(t *testing.T) {
		cmd := NewCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", "json"})
		assert.Error(t, cmd.Execute())
	})
}
