// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

var regions = []string{
	"Switzerland Nord-East",
	"Switzerland Nord-West",
	"Switzerland Central",
	"Switzerland East",
	"Switzerland South",
	"Switzerland West",
	"Switzerland Middle-West",
}

var sampleTypes = []string{"urine", "blood", "wound", "respiratory", "other"}

var hospitalStatuses = []string{"inpatient", "outpatient", "icu"}

var ageGroups = []string{"0-1", "2-18", "19-44", "45-64", "65-79", "80+"}

var bacteria = []string{
	"Escherichia coli",
	"Klebsiella pneumoniae",
	"Staphylococcus aureus",
	"Pseudomonas aeruginosa",
	"Enterococcus faecalis",
	"Proteus mirabilis",
}

type antibiotic struct {
	class string
	name  string
}

var antibiotics = []antibiotic{
	{"ceph4", "Cefepime"},
	{"ceph3", "Ceftriaxone"},
	{"carbapenem", "Meropenem"},
	{"quinolone", "Ciprofloxacin"},
	{"penicillin", "Amoxicillin"},
	{"aminoglycoside", "Gentamicin"},
}

var resistances = []string{"s", "i", "r"}

const header = "sample_id,region,sample_type,hospital_status,age_group,bacterium,antibiotic_class,antibiotic,resistance,sample_date"

func main() {
	app := &cli.App{
		Name:  "fixturegen",
		Usage: "Write a synthetic resistance export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (stdout if empty)",
			},
			&cli.IntFlag{
				Name:    "rows",
				Aliases: []string{"n"},
				Usage:   "Number of data rows",
				Value:   1000,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed, equal seeds give equal files",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "no-header",
				Usage: "Omit the header line",
			},
			&cli.BoolFlag{
				Name:  "crlf",
				Usage: "Terminate lines with CRLF",
			},
			&cli.TimestampFlag{
				Name:   "mtime",
				Usage:  "Set the output file's modification time",
				Layout: time.RFC3339,
			},
		},
		Action: generate,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(c *cli.Context) error {
	w := c.App.Writer
	path := c.String("out")
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	seed := c.Uint64("seed")
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	opts := exportOptions{
		rows:      c.Int("rows"),
		header:    !c.Bool("no-header"),
		separator: "\n",
	}
	if c.Bool("crlf") {
		opts.separator = "\r\n"
	}
	if err := writeExport(w, rng, opts); err != nil {
		return err
	}

	if path == "" {
		return nil
	}
	if mtime := c.Timestamp("mtime"); mtime != nil {
		if err := os.Chtimes(path, *mtime, *mtime); err != nil {
			return err
		}
	}
	return nil
}

type exportOptions struct {
	rows      int
	header    bool
	separator string
}

// writeExport writes rows of plausible export lines. The last line carries
// no separator, as in the real export.
func writeExport(w io.Writer, rng *rand.Rand, opts exportOptions) error {
	bw := bufio.NewWriter(w)
	first := true
	line := func(s string) {
		if !first {
			bw.WriteString(opts.separator)
		}
		first = false
		bw.WriteString(s)
	}

	if opts.header {
		line(header)
	}

	epoch := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	for range opts.rows {
		ab := pick(rng, antibiotics)
		date := epoch.AddDate(0, 0, rng.IntN(7*365))
		line(fmt.Sprintf("%016X%016X, %q, %s, %s, %s, %q, %q, %q, %s, %s",
			rng.Uint64(), rng.Uint64(),
			pick(rng, regions),
			pick(rng, sampleTypes),
			pick(rng, hospitalStatuses),
			pick(rng, ageGroups),
			pick(rng, bacteria),
			ab.class,
			ab.name,
			pick(rng, resistances),
			date.Format("02.01.2006")))
	}

	return bw.Flush()
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}
