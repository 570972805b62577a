package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gamescraper/search"
)

// chooseCandidate asks which candidate to keep. It returns -1 when the user
// skips (empty input or "s"). Invalid input is asked again.
func chooseCandidate(in io.Reader, out io.Writer, candidates []search.Candidate) (int, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "Choose a candidate [0-%d], or press Enter to skip: ", len(candidates)-1)
		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, fmt.Errorf("read choice: %w", err)
		}
		input = strings.ToLower(strings.TrimSpace(input))

		if input == "" || input == "s" || input == "skip" {
			return -1, nil
		}
		choice, convErr := strconv.Atoi(input)
		if convErr == nil && choice >= 0 && choice < len(candidates) {
			return choice, nil
		}
		if errors.Is(err, io.EOF) {
			return -1, nil
		}
		fmt.Fprintln(out, "Invalid choice. Please try again.")
	}
}
