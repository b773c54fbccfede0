package fixtures

import (
	"bufio"
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbolytics/cleaner/internal/reshaper"
)

func TestGenerator(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		g := &Generator{Rand: rand.New(rand.NewSource(1))}

		var buf bytes.Buffer
		require.NoError(t, g.Write(&buf, 100))

		n := 0
		s := bufio.NewScanner(&buf)
		for s.Scan() {
			r, err := reshaper.Line(s.Text())
			require.NoError(t, err, s.Text())
			assert.True(t, strings.HasPrefix(r.Code, "storeCode_"))
			n++
		}
		assert.Equal(t, 100, n)
	})

	t.Run("all malformed", func(t *testing.T) {
		g := &Generator{Rand: rand.New(rand.NewSource(1)), Malformed: 1}
		for i := 0; i < 50; i++ {
			_, err := reshaper.Line(g.Line(i))
			assert.Error(t, err)
		}
	})

	t.Run("seeded output is repeatable", func(t *testing.T) {
		a := &Generator{Rand: rand.New(rand.NewSource(42))}
		b := &Generator{Rand: rand.New(rand.NewSource(42))}
		assert.Equal(t, a.Line(1), b.Line(1))
	})
}

func TestGenerateCommand(t *testing.T) {
	assert.Contains(t, NewCommand().Short, "transaction")

	output := filepath.Join(t.TempDir(), "raw", "transactions.tsv")

	cmd := NewCommand()
	cmd.SetArgs([]string{"generate", output, "--records", "25", "--seed", "7"})
	require.NoError(t, cmd.Execute())

	bs, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 25, strings.Count(string(bs), "\n"))

	// existing fixtures are never overwritten
	cmd = NewCommand()
	cmd.SetArgs([]string{"generate", output})
	assert.Error(t, cmd.Execute())
}
