package parsers

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBib = `
@inproceedings{silva2024testing,
  title     = {Mutation Testing in {Practice}},
  author    = {Maria Silva and Joao Costa},
  booktitle = {Brazilian Symposium on Software Engineering},
  year      = {2024},
  pages     = {10--20},
  location  = {Curitiba}
}

@InProceedings{lima2023review,
  Title     = "Code Review
               at Scale",
  Author    = "Bruno Lima",
  BookTitle = "ICSE",
  Year      = 2023
}
`

func TestParseBibTeX(t *testing.T) {
	entries, err := ParseBibTeX(strings.NewReader(sampleBib))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	t.Run("keeps file order", func(t *testing.T) {
		assert.Equal(t, "silva2024testing", entries[0].Key)
		assert.Equal(t, "lima2023review", entries[1].Key)
	})

	t.Run("normalizes type and field names", func(t *testing.T) {
		assert.Equal(t, "inproceedings", entries[1].Type)
		v, ok := entries[1].Get("booktitle")
		require.True(t, ok)
		assert.Equal(t, "ICSE", v)
	})

	t.Run("unwraps values", func(t *testing.T) {
		title, _ := entries[0].Get("title")
		assert.Equal(t, "Mutation Testing in Practice", title)

		title, _ = entries[1].Get("title")
		assert.Equal(t, "Code Review at Scale", title)

		pages, _ := entries[0].Get("pages")
		assert.Equal(t, "10--20", pages)

		year, _ := entries[1].Get("year")
		assert.Equal(t, "2023", year)
	})

	t.Run("ID and ENTRYTYPE pseudo fields", func(t *testing.T) {
		id, ok := entries[0].Get("ID")
		require.True(t, ok)
		assert.Equal(t, "silva2024testing", id)

		kind, _ := entries[0].Get("ENTRYTYPE")
		assert.Equal(t, "inproceedings", kind)
	})

	t.Run("missing field", func(t *testing.T) {
		_, ok := entries[1].Get("location")
		assert.False(t, ok)
	})
}

func TestParseBibTeX_Empty(t *testing.T) {
	entries, err := ParseBibTeX(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseBibTeX_Malformed(t *testing.T) {
	_, err := ParseBibTeX(strings.NewReader("@article{broken, title = {unterminated"))
	assert.Error(t, err)
}

func TestCleanValue(t *testing.T) {
	tests := map[string]string{
		`{Hello}`:              "Hello",
		`"Quoted"`:             "Quoted",
		"  spaced\n   value  ": "spaced value",
		`{The {GPU} Era}`:      "The GPU Era",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanValue(in), in)
	}
}

const oneEntry = "@inproceedings{doe2024study, title = {A Study}, author = {John Doe}, booktitle = {ICSE 2024}, year = {2024}}"

func TestParseBibTeX_ValidAfterMalformed(t *testing.T) {
	for i := 0; i < 3; i++ {
		_, err := ParseBibTeX(strings.NewReader("@inproceedings{x, title = {never closed"))
		require.Error(t, err)

		entries, err := ParseBibTeX(strings.NewReader(oneEntry))
		require.NoError(t, err, "attempt %d", i)
		require.Len(t, entries, 1)
		assert.Equal(t, "doe2024study", entries[0].Key)
	}
}

func TestParseBibTeX_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	counts := make(chan int, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := oneEntry
			if i%4 == 0 {
				src = "@article{broken, title = {unterminated"
			}
			entries, err := ParseBibTeX(strings.NewReader(src))
			if i%4 == 0 {
				if err == nil {
					errs <- assert.AnError
				}
				return
			}
			if err != nil {
				errs <- err
				return
			}
			counts <- len(entries)
		}(i)
	}
	wg.Wait()
	close(errs)
	close(counts)

	for err := range errs {
		assert.NoError(t, err)
	}
	for n := range counts {
		assert.Equal(t, 1, n)
	}
}

func TestParseBibTeX_IgnoresTextOutsideEntries(t *testing.T) {
	tests := map[string]string{
		"jabref encoding header": "% Encoding: UTF-8\n\n" + oneEntry,
		"exporter header":        "This file was exported by Zotero\nContact: team@zotero.org\n\n" + oneEntry,
		"trailing text":          oneEntry + "\n\nend of file\n",
		"commented out entry":    "% @inproceedings{hidden, title = {Hidden}}\n" + oneEntry,
		"comment block":          "@comment{jabref-meta: databaseType:bibtex; {unbalanced}\n" + oneEntry,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			entries, err := ParseBibTeX(strings.NewReader(src))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "doe2024study", entries[0].Key)
		})
	}
}

func TestParseBibTeX_OnlyFreeText(t *testing.T) {
	entries, err := ParseBibTeX(strings.NewReader("% nothing here\njust some notes\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryBlocks(t *testing.T) {
	assert.Equal(t, "@misc{a, title = {x {y}}}\n", entryBlocks("intro @ text\n@misc{a, title = {x {y}}} outro"))
	assert.Equal(t, "@misc{b, title = {open", entryBlocks("head\n@misc{b, title = {open"))
}
