package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  CSVOptions
		want  [][]string
	}{
		{
			name:  "basic",
			input: "a,b,c\n1,2,3\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "tab delimited",
			input: "USPS\tGEOID\tALAND_SQMI\nCA\t0644000\t468.7\n",
			opts:  CSVOptions{Delimiter: '\t'},
			want:  [][]string{{"USPS", "GEOID", "ALAND_SQMI"}, {"CA", "0644000", "468.7"}},
		},
		{
			name:  "trim space",
			input: " a , b \n 1 , 2 \n",
			opts:  CSVOptions{TrimSpace: true},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "comment",
			input: "# generated\na,b\n1,2\n",
			opts:  CSVOptions{Comment: '#'},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "variable fields",
			input: "a,b,c\n1\n",
			want:  [][]string{{"a", "b", "c"}, {"1"}},
		},
		{
			name:  "lazy quotes",
			input: "a,b\n1,\"say \"hi\"\n",
			opts:  CSVOptions{LazyQuotes: true},
			want:  [][]string{{"a", "b"}, {"1", "say \"hi"}},
		},
		{
			name:  "utf-8 byte order mark",
			input: "\ufeffNAME,B01003_1\nX,1\n",
			want:  [][]string{{"NAME", "B01003_1"}, {"X", "1"}},
		},
		{
			name:  "empty",
			input: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(tt.input), tt.opts)
			rows, err := collectRows(t, rowCh, errCh)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestStreamCSV_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("NAME\n\"Cañon City city, Colorado\"\n")
	require.NoError(t, err)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(raw), CSVOptions{Encoding: "latin1"})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cañon City city, Colorado", rows[1][0])
}

func TestStreamCSV_UnknownEncoding(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a\n"), CSVOptions{Encoding: "klingon"})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown encoding")
}

func TestStreamCSV_WithHeader(t *testing.T) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("name,age\nalice,30\n"), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"alice", "30"}}, rows)
	assert.Equal(t, []string{"name", "age"}, <-headerCh)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk error")
}

func TestStreamCSV_ReadError(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), failingReader{}, CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestStreamCSV_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	for range 10000 {
		sb.WriteString("a,b,c\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})

	count := 0
	for range rowCh {
		count++
		if count == 5 {
			cancel()
		}
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
	assert.Less(t, count, 10000)
}

func TestReadTable(t *testing.T) {
	header, rows, err := ReadTable(context.Background(),
		strings.NewReader("GEOID|NAME\n06037|Los Angeles County, California\n"),
		CSVOptions{Delimiter: '|', HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"GEOID", "NAME"}, header)
	assert.Equal(t, [][]string{{"06037", "Los Angeles County, California"}}, rows)

	_, _, err = ReadTable(context.Background(), strings.NewReader(""), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty table")
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: ""},
		{name: "UTF-8"},
		{name: "latin1"},
		{name: "ISO-8859-1"},
		{name: "windows-1252"},
		{name: "shift_jis"},
		{name: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encoding(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	enc, err := Encoding("latin1")
	require.NoError(t, err)
	assert.Equal(t, charmap.ISO8859_1, enc)
}
