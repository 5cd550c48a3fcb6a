package compose

import (
	"fmt"
	"os"
	"strings"

	"narrated-video-pipeline/config"
)

// WrapCaption breaks text into lines of at most width runes. Words are split
// on whitespace and kept whole unless a single word is longer than width; such
// a word first fills what is left of the current line and then continues in
// width-sized pieces.
func WrapCaption(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for _, field := range strings.Fields(text) {
		word := []rune(field)
		switch {
		case len(cur) == 0 && len(word) <= width:
			cur = append(cur, word...)
			continue
		case len(cur) > 0 && len(cur)+1+len(word) <= width:
			cur = append(cur, ' ')
			cur = append(cur, word...)
			continue
		case len(word) <= width:
			flush()
			cur = append(cur, word...)
			continue
		}

		// word is longer than a whole line
		if len(cur) > 0 {
			if left := width - len(cur) - 1; left > 0 {
				cur = append(cur, ' ')
				cur = append(cur, word[:left]...)
				word = word[left:]
			}
			flush()
		}
		for len(word) > width {
			lines = append(lines, string(word[:width]))
			word = word[width:]
		}
		cur = append(cur, word...)
	}
	flush()
	return lines
}

// CaptionText is the wrapped caption as drawn: one line per wrapped line.
func CaptionText(text string, width int) string {
	return strings.Join(WrapCaption(text, width), "\n")
}

// EscapeFilterValue escapes s for use as a filter option value inside a
// filtergraph: first for the option parser, then for the graph parser.
func EscapeFilterValue(s string) string {
	opt := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(s)
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`).Replace(opt)
}

// writeCaptionFile stores the wrapped caption in a temp file in dir. drawtext
// reads it with expansion disabled, so the text never passes through the
// filtergraph parser. Empty text becomes a single space so the box is still
// drawn.
func writeCaptionFile(dir, text string, width int) (string, error) {
	body := CaptionText(text, width)
	if body == "" {
		body = " "
	}
	f, err := os.CreateTemp(dir, "caption_*.txt")
	if err != nil {
		return "", fmt.Errorf("create caption file: %w", err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write caption file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write caption file: %w", err)
	}
	return f.Name(), nil
}

// drawtextFilter renders the caption centered near the bottom of the frame
// on a translucent box.
func drawtextFilter(cfg config.CaptionsConfig, textFile string) string {
	return fmt.Sprintf(
		"drawtext=fontfile=%s:textfile=%s:expansion=none:fontcolor=%s:fontsize=%d:box=1:boxcolor=%s:boxborderw=%d:x=(w-text_w)/2:y=h-(text_h*2)",
		EscapeFilterValue(cfg.FontFile),
		EscapeFilterValue(textFile),
		EscapeFilterValue(cfg.FontColor),
		cfg.FontSize,
		EscapeFilterValue(cfg.BoxColor),
		cfg.BoxBorder,
	)
}
