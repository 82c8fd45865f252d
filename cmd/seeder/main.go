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


// Seeder populates a recall database with a demo corpus of notes for
// one owner and backfills the vector index. Pass -src to seed from a
// file of "title|content" lines instead of the built-in corpus.
package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
)

var demoNotes = []string{
	"Garden|Planted tomatoes and basil in the raised bed by the fence.",
	"Garden watering|Water the tomatoes every other morning, more in a heatwave.",
	"Bike maintenance|Replaced the rear brake pads, chain needs oiling next month.",
	"Dentist|Appointment with Dr. Okafor on the 14th at 9am, bring insurance card.",
	"Rent|Rent is due on the first, landlord prefers bank transfer now.",
	"Sourdough starter|Feed the starter daily, 50g flour and 50g water, keep it warm.",
	"Book club|Next meeting we discuss The Left Hand of Darkness, chapters 1 to 8.",
	"Wifi password|Guest network password changed to the one on the fridge magnet.",
	"Car insurance|Policy renews in November, call about the multi-car discount.",
	"Hiking|The north ridge trail is closed until spring, use the lake loop instead.",
	"Birthday ideas|Sam mentioned wanting a proper chef's knife and a whetstone.",
	"Tax documents|Receipts for the home office are in the blue folder, top drawer.",
	"Piano practice|Working on the second movement, slow practice at sixty bpm.",
	"Recipe: dal|Red lentils, cumin seeds fried in ghee, finish with lemon juice.",
	"Meeting notes|Quarterly planning moved to Thursdays, bring the roadmap doc.",
	"Plant care|The fiddle leaf fig drops leaves when moved, keep it by the window.",
	"Running|Long run Sundays, easy pace, build to twenty kilometers by March.",
	"Passport|Passport expires next August, renewal takes six to eight weeks.",
	"Coffee|The roaster on 5th street sells the Ethiopian beans we liked.",
	"Basement|The dehumidifier filter needs cleaning every two weeks in summer.",
}

var (
	seedFileName = flag.String("src", "", "file of seed notes, one title|content per line")
	dbPath       = flag.String("db", "./recall_db", "path to the data directory")
	ownerID      = flag.String("owner", "demo", "owner to seed notes for")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// noteFromLine splits a "title|content" line; a line without the
// separator becomes an untitled note.
func noteFromLine(owner, line string) *core.Note {
	title, content, found := strings.Cut(line, "|")
	if !found {
		return &core.Note{OwnerID: owner, Content: strings.TrimSpace(line)}
	}
	return &core.Note{
		OwnerID: owner,
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
}

func seedNotes(ctx context.Context, db *recall.Database, owner string, source iter.Seq[string]) (int, error) {
	count := 0
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := db.NoteRepository().CreateNote(ctx, noteFromLine(owner, line)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func main() {
	db, err := recall.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(demoNotes)
	}

	count, err := seedNotes(ctx, db, *ownerID, source)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded notes", "owner", *ownerID, "count", count)

	progress := index.NewProgressTracker(os.Stderr, count, 10)
	progress.Start()
	result, err := db.Backfill(ctx, *ownerID, progress)
	progress.Finish()
	if err != nil {
		panic(err)
	}
	slog.Info("index backfill complete",
		"synced", result.Synced, "skipped", result.Skipped, "failed", result.Failed)
}
