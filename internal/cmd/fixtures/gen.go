package fixtures

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/turbolytics/cleaner/internal/config"
	"go.uber.org/zap"
)

var (
	states = []string{
		"AK", "AZ", "CA", "CO", "CT", "FL", "MA", "MN", "NY", "OK", "OR", "TX", "WA",
	}
	firstNames = []string{
		"amanda", "jay", "maria", "li", "omar", "sasha", "chris", "fatima", "noah", "ines",
	}
	lastNames = []string{
		"fitzgerald", "yang", "garcia", "chen", "haddad", "ivanova", "smith", "ali", "jones", "silva",
	}
	products = []string{
		"cat-food", "dog-food", "flea collar", "fish-food", "steel food bowl", "hay", "turtle-food",
	}
	zones = []*time.Location{
		time.FixedZone("EST", -5*60*60),
		time.FixedZone("PST", -8*60*60),
		time.FixedZone("EET", 2*60*60),
	}
)

// Generator writes synthetic BigPetStore transaction lines. A share of
// lines, set by Malformed, have a sub-field removed.
type Generator struct {
	Rand      *rand.Rand
	Malformed float64
}

func (g *Generator) Line(transaction int) string {
	t := time.Unix(g.Rand.Int63n(365*24*60*60)-365*24*60*60, 0).In(zones[g.Rand.Intn(len(zones))])

	key := fmt.Sprintf("BigPetStore,storeCode_%s,%d", states[g.Rand.Intn(len(states))], transaction)
	details := fmt.Sprintf("%s,%s,%s,%.2f,%s",
		lastNames[g.Rand.Intn(len(lastNames))],
		firstNames[g.Rand.Intn(len(firstNames))],
		t.Format("Mon Jan 02 15:04:05 MST 2006"),
		float64(g.Rand.Intn(10000))/100,
		products[g.Rand.Intn(len(products))],
	)

	if g.Malformed > 0 && g.Rand.Float64() < g.Malformed {
		if g.Rand.Intn(2) == 0 {
			key = fmt.Sprintf("BigPetStore,%d", transaction)
		} else {
			details = fmt.Sprintf("%s,%s", firstNames[0], products[0])
		}
	}

	return key + "\t" + details
}

func (g *Generator) Write(w io.Writer, records int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < records; i++ {
		if _, err := fmt.Fprintln(bw, g.Line(i+1)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func newGenerateCommand() *cobra.Command {
	var records int
	var malformed float64
	var seed int64

	var cmd = &cobra.Command{
		Use:   "generate <output>",
		Short: "Generates a raw transaction file for testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if malformed < 0 || malformed > 1 {
				return fmt.Errorf("malformed ratio must be between 0 and 1, got %v", malformed)
			}

			logger, _ := zap.NewDevelopment()
			defer logger.Sync()
			l := logger.Named("fixtures.generate")

			loc, err := config.Default().Resolve(args[0], l)
			if err != nil {
				return err
			}

			w, err := loc.FS.Create(cmd.Context(), loc.Path)
			if err != nil {
				return err
			}

			g := &Generator{
				Rand:      rand.New(rand.NewSource(seed)),
				Malformed: malformed,
			}
			if err := g.Write(w, records); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			l.Info("generated fixtures",
				zap.String("path", args[0]),
				zap.Int("records", records),
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&records, "records", "r", 10, "Number of records to generate")
	cmd.Flags().Float64VarP(&malformed, "malformed", "m", 0, "Share of records with a missing sub-field")
	cmd.Flags().Int64VarP(&seed, "seed", "s", time.Now().UnixNano(), "Random seed")
	return cmd
}
