package shelfwatch

import (
	"encoding/json"
	"fmt"
)

// Library is one library configured on the Audiobookshelf server, as
// reported by the library listing endpoint. Field names track the wire
// names after snake_case normalisation; fields absent from the payload
// are left at their zero value.
type Library struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DisplayOrder    int             `json:"display_order"`
	Icon            string          `json:"icon"`
	MediaType       string          `json:"media_type"`
	Provider        string          `json:"provider"`
	Folders         []LibraryFolder `json:"folders"`
	Settings        LibrarySettings `json:"settings"`
	LastScan        int64           `json:"last_scan"`
	LastScanVersion string          `json:"last_scan_version"`
	CreatedAt       int64           `json:"created_at"`
	LastUpdate      int64           `json:"last_update"`
}

// LibraryFolder is one filesystem folder backing a library.
type LibraryFolder struct {
	ID        string `json:"id"`
	FullPath  string `json:"full_path"`
	LibraryID string `json:"library_id"`
	AddedAt   int64  `json:"added_at"`
}

// LibrarySettings holds the per-library server settings.
type LibrarySettings struct {
	CoverAspectRatio                   int      `json:"cover_aspect_ratio"`
	DisableWatcher                     bool     `json:"disable_watcher"`
	SkipMatchingMediaWithASIN          bool     `json:"skip_matching_media_with_asin"`
	SkipMatchingMediaWithISBN          bool     `json:"skip_matching_media_with_isbn"`
	AudiobooksOnly                     bool     `json:"audiobooks_only"`
	EpubsAllowScriptedContent          bool     `json:"epubs_allow_scripted_content"`
	HideSingleBookSeries               bool     `json:"hide_single_book_series"`
	OnlyShowLaterBooksInContinueSeries bool     `json:"only_show_later_books_in_continue_series"`
	MetadataPrecedence                 []string `json:"metadata_precedence"`
	MarkAsFinishedPercentComplete      int      `json:"mark_as_finished_percent_complete"`
	MarkAsFinishedTimeRemaining        int      `json:"mark_as_finished_time_remaining"`
	AutoScanCronExpression             *string  `json:"auto_scan_cron_expression"`
}

// DecodeLibrary converts one raw listing entry into a [Library]. Keys are
// normalised from the API's camelCase before mapping onto the record, so
// callers pass the payload exactly as decoded from the wire. Unknown
// fields are ignored.
func DecodeLibrary(raw map[string]any) (Library, error) {
	buf, err := json.Marshal(CamelToSnake(raw))
	if err != nil {
		return Library{}, fmt.Errorf("failed to encode library entry: %w", err)
	}
	var lib Library
	if err := json.Unmarshal(buf, &lib); err != nil {
		return Library{}, fmt.Errorf("failed to decode library entry: %w", err)
	}
	return lib, nil
}

// DecodeLibraries extracts and decodes the "libraries" list from a raw
// listing payload. A payload without the list yields an empty result and
// no error; a list containing malformed entries fails as a whole.
func DecodeLibraries(payload map[string]any) ([]Library, error) {
	rawList, ok := payload["libraries"].([]any)
	if !ok {
		return nil, nil
	}
	libraries := make([]Library, 0, len(rawList))
	for i, raw := range rawList {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("library entry %d is not an object", i)
		}
		lib, err := DecodeLibrary(entry)
		if err != nil {
			return nil, fmt.Errorf("library entry %d: %w", i, err)
		}
		libraries = append(libraries, lib)
	}
	return libraries, nil
}
