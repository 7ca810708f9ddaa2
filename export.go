package grabber

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foomo/grabber/vo"
)

// Export writes the listings of a site to
// <dir>/<prefix>_all_apartments_<unix>.csv. The header is url followed by the
// field names. Nothing is written when there are no listings.
func Export(dir, prefix string, fields []string, listings []vo.Listing, now time.Time) (filename string, err error) {
	if len(listings) == 0 {
		return "", nil
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return "", errMkdir
	}
	filename = filepath.Join(dir, fmt.Sprintf("%s_all_apartments_%d.csv", prefix, now.Unix()))
	file, errCreate := os.Create(filename)
	if errCreate != nil {
		return "", errCreate
	}
	defer func() {
		err = errors.Join(err, file.Close())
		if err != nil {
			filename = ""
		}
	}()

	writer := csv.NewWriter(file)
	header := append([]string{"url"}, fields...)
	if errWrite := writer.Write(header); errWrite != nil {
		return filename, errWrite
	}
	for _, listing := range listings {
		row := make([]string, 0, len(header))
		row = append(row, listing.URL)
		for _, field := range fields {
			row = append(row, listing.Value(field))
		}
		if errWrite := writer.Write(row); errWrite != nil {
			return filename, errWrite
		}
	}
	writer.Flush()
	return filename, writer.Error()
}
