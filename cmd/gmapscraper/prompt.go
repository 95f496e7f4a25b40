package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rituraj200000/googlemapscraper/feed"
)

// errInvalidChoice ends the harvest command without an error exit.
var errInvalidChoice = errors.New("invalid choice")

// readLine reads one trimmed line. EOF ends the line.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptTarget asks for a search query or a results URL and returns the
// URL to open.
func promptTarget(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter '1' for manual search or '2' for URL input: ")
	choice, err := readLine(in)
	if err != nil {
		return "", err
	}

	switch choice {
	case "1":
		fmt.Fprint(out, "Enter a business type or location (e.g., 'restaurants in New York'): ")
		query, err := readLine(in)
		if err != nil {
			return "", err
		}
		return feed.SearchURL(query), nil
	case "2":
		fmt.Fprint(out, "Enter the Google Maps URL: ")
		return readLine(in)
	default:
		return "", errInvalidChoice
	}
}

// promptPath asks for a file path; an empty answer selects def.
func promptPath(in *bufio.Reader, out io.Writer, def string) (string, error) {
	fmt.Fprintf(out, "Enter the path to the CSV file (or press Enter to use default '%s'): ", def)
	path, err := readLine(in)
	if err != nil {
		return "", err
	}
	if path == "" {
		return def, nil
	}
	return path, nil
}
