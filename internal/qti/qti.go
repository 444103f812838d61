// Package qti exports a question bank as an IMS Common Cartridge holding a
// QTI 1.2 question bank, the format learning management systems import.
package qti

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/table"
)

const manifestName = "imsmanifest.xml"

// Math is swapped for private-use placeholders while Markdown is rendered,
// so emphasis and escapes never touch TeX source.
const (
	mathOpen  = "\uE000"
	mathClose = "\uE001"
)

var (
	codeSpanRe    = regexp.MustCompile("(?s)```.*?```|`[^`\n]+`")
	displayMathRe = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$([^$\n]+)\$`)
	mathTokenRe   = regexp.MustCompile(mathOpen + `(\d+)` + mathClose)
	unsafeNameRe  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

	markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
)

// Export builds the cartridge zip for questions. Each question must have
// exactly one correct choice.
func Export(title string, questions []model.Question) ([]byte, error) {
	if err := (model.ExamSet{Questions: questions}).Validate(); err != nil {
		return nil, err
	}

	itemsName := sanitizeFilename(title) + ".xml"
	items, err := ItemsXML(questions)
	if err != nil {
		return nil, err
	}
	manifest := manifestXML(title, itemsName)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range []struct {
		name string
		body []byte
	}{
		{itemsName, []byte(items)},
		{manifestName, manifest},
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", f.name, err)
		}
		if _, err := w.Write(f.body); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ItemsXML renders the QTI object bank. Items and choice idents are numbered
// from 1 in input order.
func ItemsXML(questions []model.Question) (string, error) {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<questestinterop xmlns="http://www.imsglobal.org/xsd/ims_qtiasiv1p2" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://www.imsglobal.org/xsd/ims_qtiasiv1p2 http://www.imsglobal.org/profile/cc/ccv1p2/ccv1p2_qtiasiv1p2p1_v1p0.xsd">` + "\n")
	sb.WriteString(`  <objectbank ident="test_bank">` + "\n")
	for i, q := range questions {
		if err := writeItem(&sb, i+1, q); err != nil {
			return "", fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	sb.WriteString("  </objectbank>\n</questestinterop>\n")
	return sb.String(), nil
}

func writeItem(sb *strings.Builder, n int, q model.Question) error {
	id := fmt.Sprint(n)
	correct, _ := q.CorrectIndex()
	stem, err := StemHTML(q.Text)
	if err != nil {
		return err
	}

	fmt.Fprintf(sb, `    <item ident="%s">
      <itemmetadata>
        <qtimetadata>
          <qtimetadatafield>
            <fieldlabel>cc_profile</fieldlabel>
            <fieldentry>cc.multiple_choice.v0p1</fieldentry>
          </qtimetadatafield>
        </qtimetadata>
      </itemmetadata>
      <presentation>
        <material>
          <mattext texttype="text/html">%s</mattext>
        </material>
        <response_lid ident="%s" rcardinality="Single">
          <render_choice shuffle="Yes">
`, id, cdata(stem), id)

	for j, c := range q.Choices {
		text, err := InlineHTML(c.Text)
		if err != nil {
			return fmt.Errorf("choice %d: %w", j+1, err)
		}
		fmt.Fprintf(sb, `            <response_label ident="%d">
              <material>
                <mattext texttype="text/html">%s</mattext>
              </material>
            </response_label>
`, j+1, cdata(text))
	}

	fmt.Fprintf(sb, `          </render_choice>
        </response_lid>
      </presentation>
      <resprocessing>
        <outcomes>
          <decvar maxvalue="100" minvalue="0" varname="SCORE" vartype="Decimal"/>
        </outcomes>
        <respcondition continue="No">
          <conditionvar>
            <varequal respident="%s">%d</varequal>
          </conditionvar>
          <setvar action="Set" varname="SCORE">100</setvar>
        </respcondition>
      </resprocessing>
    </item>
`, id, correct+1)
	return nil
}

// StemHTML renders a Markdown question stem as HTML with GitHub tables.
// Fenced pipe tables become <table>, raw HTML is omitted, and $$..$$ and
// $..$ math outside code is emitted as \[..\] and \(..\) for MathJax.
func StemHTML(text string) (string, error) {
	src, math := protectMath(table.Unfence(text))
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out := mathTokenRe.ReplaceAllStringFunc(buf.String(), func(tok string) string {
		i, _ := strconv.Atoi(mathTokenRe.FindStringSubmatch(tok)[1])
		return html.EscapeString(math[i])
	})
	return strings.TrimSpace(out), nil
}

// InlineHTML renders a choice like StemHTML but drops the paragraph wrapper
// when the choice is a single paragraph.
func InlineHTML(text string) (string, error) {
	s, err := StemHTML(text)
	if err != nil {
		return "", err
	}
	if inner, ok := strings.CutPrefix(s, "<p>"); ok && !strings.Contains(inner, "<p>") {
		if inner, ok := strings.CutSuffix(inner, "</p>"); ok {
			return inner, nil
		}
	}
	return s, nil
}

// protectMath replaces math outside code with placeholders and returns the
// delimited TeX each placeholder stands for.
func protectMath(text string) (string, []string) {
	var math []string
	swap := func(s string) string {
		for _, d := range []struct {
			re          *regexp.Regexp
			open, close string
		}{
			{displayMathRe, `\[`, `\]`},
			{inlineMathRe, `\(`, `\)`},
		} {
			s = d.re.ReplaceAllStringFunc(s, func(m string) string {
				math = append(math, d.open+strings.TrimSpace(d.re.FindStringSubmatch(m)[1])+d.close)
				return mathOpen + strconv.Itoa(len(math)-1) + mathClose
			})
		}
		return s
	}

	var sb strings.Builder
	last := 0
	for _, loc := range codeSpanRe.FindAllStringIndex(text, -1) {
		sb.WriteString(swap(text[last:loc[0]]))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(swap(text[last:]))
	return sb.String(), math
}

func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

func sanitizeFilename(name string) string {
	name = unsafeNameRe.ReplaceAllString(name, "_")
	if name == "" {
		return "questions"
	}
	return name
}

const manifestTemplate = `<manifest xmlns="http://www.imsglobal.org/xsd/imsccv1p2/imscp_v1p1" identifier="cctd0001"
    xmlns:lom="http://ltsc.ieee.org/xsd/imsccv1p2/LOM/resource"
    xmlns:lomimscc="http://ltsc.ieee.org/xsd/imsccv1p2/LOM/manifest"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <metadata>
    <schema>IMS Common Cartridge</schema>
    <schemaversion>1.2.0</schemaversion>
    <lomimscc:lom>
      <lomimscc:general>
        <lomimscc:title>
          <lomimscc:string>%[1]s</lomimscc:string>
        </lomimscc:title>
      </lomimscc:general>
    </lomimscc:lom>
  </metadata>
  <organizations>
    <organization identifier="org" structure="rooted-hierarchy">
      <item identifier="root">
        <item identifier="iden0000001" identifierref="ccres0000001">
          <title>%[1]s</title>
        </item>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="ccres0000001" type="imsqti_xmlv1p2/imscc_xmlv1p2/question-bank">
      <metadata/>
      <file href="%[2]s"/>
    </resource>
  </resources>
</manifest>
`

func manifestXML(title, itemsName string) []byte {
	return []byte(xml.Header + fmt.Sprintf(manifestTemplate, html.EscapeString(title), html.EscapeString(itemsName)))
}
