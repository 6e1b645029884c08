package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Chart geometry, in SVG user units.
const (
	chartSize   = 320
	chartMargin = 40
	plotSize    = chartSize - 2*chartMargin
)

const stylesheet = `body{font-family:sans-serif;margin:2em;color:#222}
table{border-collapse:collapse;margin:1em 0}
td,th{border:1px solid #ccc;padding:.25em .6em;text-align:right}
th{background:#f4f4f4}
tr.belongs td{background:#eef8ee}
.axis{stroke:#555;stroke-width:1}
.chance{stroke:#bbb;stroke-dasharray:4 4}
.roc{fill:none;stroke:#1f5fbf;stroke-width:2}
.chosen{fill:#d0342c}`

// WriteHTML renders the report as a standalone HTML page.
func (r EntityReport) WriteHTML(w io.Writer) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := el("html", "lang", "en")
	doc.AppendChild(root)

	head := el("head")
	head.AppendChild(el("meta", "charset", "utf-8"))
	head.AppendChild(withText(el("title"), r.Title+" - "+r.EntityID))
	head.AppendChild(withText(el("style"), stylesheet))
	root.AppendChild(head)

	body := el("body")
	root.AppendChild(body)
	body.AppendChild(withText(el("h1"), r.Title))
	body.AppendChild(withText(el("p", "class", "entity"), "Entity "+r.EntityID+", generated "+r.GeneratedAt.Format("2006-01-02 15:04 MST")))

	body.AppendChild(withText(el("h2"), "Profile"))
	body.AppendChild(r.profileTable())

	if r.Calibration != nil {
		body.AppendChild(withText(el("h2"), "Calibration"))
		body.AppendChild(r.calibrationTable())
		body.AppendChild(r.rocChart())
	} else {
		body.AppendChild(withText(el("p", "class", "uncalibrated"), "No calibration run."))
	}

	if len(r.Trips) > 0 {
		body.AppendChild(withText(el("h2"), "Scored trips"))
		body.AppendChild(r.tripsTable())
	}

	return html.Render(w, doc)
}

func (r EntityReport) profileTable() *html.Node {
	p := r.Profile
	rows := [][2]string{
		{"Trips", strconv.Itoa(p.Trips)},
		{"Corpus length", strconv.Itoa(p.CorpusLen)},
		{"Leaves", strconv.FormatInt(p.Leaves, 10)},
		{"Nodes", strconv.Itoa(p.Nodes)},
		{"Root children", strconv.Itoa(p.RootChildren)},
		{"Alphabet", p.Alphabet},
		{"Threshold", formatFloat(p.Threshold)},
		{"Calibrated", strconv.FormatBool(p.Calibrated)},
	}

	syms := make([]string, 0, len(p.Descendants))
	for s := range p.Descendants {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, s := range syms {
		rows = append(rows, [2]string{"Below " + s, strconv.Itoa(p.Descendants[s])})
	}
	return keyValueTable("profile", rows)
}

func (r EntityReport) calibrationTable() *html.Node {
	c := r.Calibration
	return keyValueTable("calibration", [][2]string{
		{"Threshold", formatFloat(c.Threshold)},
		{"Youden J", formatFloat(c.J)},
		{"AUC", formatFloat(c.AUC)},
		{"TP / FN", fmt.Sprintf("%d / %d", c.TP, c.FN)},
		{"TN / FP", fmt.Sprintf("%d / %d", c.TN, c.FP)},
		{"Recall", formatFloat(c.Recall)},
		{"Precision", formatFloat(c.Precision)},
		{"Specificity", formatFloat(c.Specificity)},
		{"Samples", strconv.Itoa(c.Samples)},
	})
}

func (r EntityReport) tripsTable() *html.Node {
	table := el("table", "class", "trips")
	header := el("tr")
	for _, h := range []string{"#", "Sequence", "Score", "Belongs"} {
		header.AppendChild(withText(el("th"), h))
	}
	table.AppendChild(header)

	for i, t := range r.Trips {
		row := el("tr")
		if t.Belongs {
			row.Attr = append(row.Attr, html.Attribute{Key: "class", Val: "belongs"})
		}
		row.AppendChild(withText(el("td"), strconv.Itoa(i+1)))
		row.AppendChild(withText(el("td"), t.Sequence))
		row.AppendChild(withText(el("td"), formatFloat(t.Score)))
		row.AppendChild(withText(el("td"), strconv.FormatBool(t.Belongs)))
		table.AppendChild(row)
	}
	return table
}

// rocChart draws FPR on x and TPR on y, with the chance diagonal and the
// selected operating point.
func (r EntityReport) rocChart() *html.Node {
	size := strconv.Itoa(chartSize)
	svg := el("svg",
		"xmlns", "http://www.w3.org/2000/svg",
		"class", "roc-chart",
		"width", size,
		"height", size,
		"viewBox", "0 0 "+size+" "+size,
	)

	x0, y0 := plotX(0), plotY(0)
	x1, y1 := plotX(1), plotY(1)
	svg.AppendChild(el("line", "class", "axis", "x1", x0, "y1", y0, "x2", x1, "y2", y0))
	svg.AppendChild(el("line", "class", "axis", "x1", x0, "y1", y0, "x2", x0, "y2", y1))
	svg.AppendChild(el("line", "class", "chance", "x1", x0, "y1", y0, "x2", x1, "y2", y1))

	pts := make([]string, 0, len(r.Curve)+1)
	for _, p := range r.Curve {
		pts = append(pts, plotX(p.FPR)+","+plotY(p.TPR))
	}
	// the curve ends where every trip is accepted
	if n := len(r.Curve); n > 0 && (r.Curve[n-1].FPR != 1 || r.Curve[n-1].TPR != 1) {
		pts = append(pts, x1+","+y1)
	}
	svg.AppendChild(el("polyline", "class", "roc", "points", strings.Join(pts, " ")))

	for _, p := range r.Curve {
		if p.Threshold != nil && *p.Threshold == r.Calibration.Threshold {
			dot := el("circle", "class", "chosen", "r", "4", "cx", plotX(p.FPR), "cy", plotY(p.TPR))
			dot.AppendChild(withText(el("title"), "threshold "+formatFloat(*p.Threshold)))
			svg.AppendChild(dot)
			break
		}
	}

	svg.AppendChild(withText(el("text", "x", plotX(0.5), "y", strconv.Itoa(chartSize-8), "text-anchor", "middle"), "false positive rate"))
	svg.AppendChild(withText(el("text", "x", "12", "y", plotY(0.5), "text-anchor", "middle",
		"transform", "rotate(-90 12 "+plotY(0.5)+")"), "true positive rate"))
	return svg
}

func keyValueTable(class string, rows [][2]string) *html.Node {
	table := el("table", "class", class)
	for _, kv := range rows {
		row := el("tr")
		row.AppendChild(withText(el("th"), kv[0]))
		row.AppendChild(withText(el("td"), kv[1]))
		table.AppendChild(row)
	}
	return table
}

func el(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func plotX(fpr float64) string {
	return strconv.FormatFloat(chartMargin+fpr*plotSize, 'f', 1, 64)
}

func plotY(tpr float64) string {
	return strconv.FormatFloat(chartMargin+(1-tpr)*plotSize, 'f', 1, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
