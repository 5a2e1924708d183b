// Package goquery extracts registration rows from HTML pages using goquery.
package goquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prgi"
	"golang.org/x/net/html"
)

// Ensure TableParser implements prgi.TableParser at compile time.
var _ prgi.TableParser = (*TableParser)(nil)

// embeddedJSON matches the first JSON array of objects in a page. Some
// listing pages ship their data in a script block instead of a table.
var embeddedJSON = regexp.MustCompile(`(?s)(\[\s*\{.*?\}\s*\])`)

// TableParser parses the first table of a page into rows keyed by the
// table's header cells.
type TableParser struct{}

// NewTableParser returns a new TableParser.
func NewTableParser() *TableParser {
	return &TableParser{}
}

// ParseTable extracts rows from the first table in the page. When the page
// has no table rows it falls back to an embedded JSON array. Rows whose
// cell count does not match the header are keyed col_1, col_2, ...
func (p *TableParser) ParseTable(page string) (*prgi.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, prgi.Errorf(prgi.EINVALID, "failed to parse HTML: %v", err)
	}

	t := &prgi.Table{}
	parseTable(t, doc.Find("table").First())
	if len(t.Rows) > 0 {
		return t, nil
	}
	return parseEmbeddedJSON(page), nil
}

func parseTable(t *prgi.Table, table *goquery.Selection) {
	if table.Length() == 0 {
		return
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cellText(th))
	})

	// Rows of this table only, not of nested tables.
	trs := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table) && tr.ParentsFiltered("thead").Length() == 0
	})

	if len(headers) == 0 && trs.Length() > 0 {
		trs.First().Children().Filter("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cellText(cell))
		})
		trs = trs.Slice(1, goquery.ToEnd)
	}

	seen := make(map[string]bool)
	trs.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Children().Filter("td")
		if cells.Length() == 0 {
			return
		}

		values := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			values = append(values, cellText(td))
		})

		keys := headers
		if len(headers) != len(values) {
			keys = make([]string, len(values))
			for i := range values {
				keys[i] = fmt.Sprintf("col_%d", i+1)
			}
		}

		row := make(prgi.Row, len(values))
		for i, v := range values {
			addColumn(t, seen, keys[i])
			row[keys[i]] = v
		}
		t.Rows = append(t.Rows, row)
	})
}

func parseEmbeddedJSON(page string) *prgi.Table {
	t := &prgi.Table{}
	m := embeddedJSON.FindStringSubmatch(page)
	if m == nil {
		return t
	}

	// Decode token by token so columns keep their source order.
	dec := json.NewDecoder(bytes.NewReader([]byte(m[1])))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return t
	}

	seen := make(map[string]bool)
	var rows []prgi.Row
	for dec.More() {
		row, err := decodeObject(dec, func(key string) { addColumn(t, seen, key) })
		if err != nil {
			return &prgi.Table{}
		}
		rows = append(rows, row)
	}
	t.Rows = rows
	return t
}

func decodeObject(dec *json.Decoder, column func(string)) (prgi.Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	row := make(prgi.Row)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		column(key)
		row[key] = CleanText(jsonString(v))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}

func addColumn(t *prgi.Table, seen map[string]bool, name string) {
	if seen[name] {
		return
	}
	seen[name] = true
	t.Columns = append(t.Columns, name)
}

func jsonString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// cellText returns the text of a cell with its text nodes separated by
// spaces, so "<td>A<br>B</td>" reads "A B".
func cellText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return CleanText(strings.Join(parts, " "))
}

// CleanText collapses runs of whitespace to single spaces and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
