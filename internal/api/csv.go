package api

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/jszwec/csvutil"
)

// respondWithCSV writes a series, ranking or single aggregate as CSV.
func respondWithCSV(w http.ResponseWriter, filename string, data interface{}) error {
	rows := data
	if v := reflect.ValueOf(data); v.Kind() != reflect.Slice {
		slice := reflect.MakeSlice(reflect.SliceOf(v.Type()), 0, 1)
		rows = reflect.Append(slice, v).Interface()
	}

	body, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return nil
}
