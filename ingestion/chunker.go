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


package ingestion

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the default upper bound on chunk length, in runes.
const DefaultMaxChunkSize = 1000

// SplitText splits text into chunks of at most maxSize runes.
//
// Paragraphs are separated by blank lines and packed together, joined by a
// blank line, while they fit. A paragraph longer than maxSize is split on
// word boundaries, and a word longer than maxSize is split mid-word.
// A maxSize below one selects DefaultMaxChunkSize.
func SplitText(text string, maxSize int) []string {
	if maxSize < 1 {
		maxSize = DefaultMaxChunkSize
	}

	var (
		chunks  []string
		current strings.Builder
		length  int
	)
	flush := func() {
		if length > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
	}

	for _, para := range paragraphs(text) {
		for _, piece := range splitLong(para, maxSize) {
			n := utf8.RuneCountInString(piece)
			if length > 0 && length+2+n > maxSize {
				flush()
			}
			if length > 0 {
				current.WriteString("\n\n")
				length += 2
			}
			current.WriteString(piece)
			length += n
		}
	}
	flush()
	return chunks
}

func paragraphs(text string) []string {
	var (
		out     []string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, "\n"))
	}
	return out
}

func splitLong(para string, maxSize int) []string {
	if utf8.RuneCountInString(para) <= maxSize {
		return []string{para}
	}

	var (
		pieces []string
		b      strings.Builder
		n      int
	)
	flush := func() {
		if n > 0 {
			pieces = append(pieces, b.String())
			b.Reset()
			n = 0
		}
	}

	for _, word := range strings.Fields(para) {
		for utf8.RuneCountInString(word) > maxSize {
			flush()
			runes := []rune(word)
			pieces = append(pieces, string(runes[:maxSize]))
			word = string(runes[maxSize:])
		}
		wn := utf8.RuneCountInString(word)
		if wn == 0 {
			continue
		}
		if n > 0 && n+1+wn > maxSize {
			flush()
		}
		if n > 0 {
			b.WriteByte(' ')
			n++
		}
		b.WriteString(word)
		n += wn
	}
	flush()
	return pieces
}
