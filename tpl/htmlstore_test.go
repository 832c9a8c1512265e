package tpl

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"html/layout.gohtml":       {Data: []byte(`<title>{{template "title" .}}</title>{{template "partials/nav" .}}<main>{{template "content" .}}</main>`)},
		"html/partials/nav.gohtml": {Data: []byte(`<nav>{{upper .User}}</nav>`)},
		"html/pages/login.gohtml":  {Data: []byte(`{{define "title"}}Login{{end}}{{define "content"}}<form>{{.Msg}}</form>{{end}}`)},
		"html/pages/faq.gohtml":    {Data: []byte(`{{define "title"}}FAQ{{end}}{{define "content"}}faq{{end}}`)},
		"html/.hidden/skip.gohtml": {Data: []byte(`{{`)},
		"html/pages/readme.txt":    {Data: []byte(`not a template`)},
	}
}

func TestComposeAndExecute(t *testing.T) {
	s := NewHTMLTemplateStore(template.FuncMap{"upper": strings.ToUpper})
	require.NoError(t, s.LoadBaseTemplates(testFS(), "html"))
	require.NoError(t, s.Compose("layout", "partials", "pages"))
	assert.Equal(t, 2, s.Len())

	var buf bytes.Buffer
	require.NoError(t, s.Execute(&buf, "login", map[string]string{"User": "ana", "Msg": "<b>x</b>"}))
	assert.Equal(t, `<title>Login</title><nav>ANA</nav><main><form>&lt;b&gt;x&lt;/b&gt;</form></main>`, buf.String())

	buf.Reset()
	require.NoError(t, s.Execute(&buf, "faq", map[string]string{"User": "ana"}))
	assert.Contains(t, buf.String(), "<main>faq</main>")

	assert.Error(t, s.Execute(&buf, "missing", nil))
}

func TestComposeErrors(t *testing.T) {
	s := NewHTMLTemplateStore(nil)
	require.NoError(t, s.LoadBaseTemplates(testFS(), "html"))
	assert.Error(t, s.Compose("nolayout", "partials", "pages"))

	bad := testFS()
	bad["html/pages/broken.gohtml"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.X`)}
	s = NewHTMLTemplateStore(template.FuncMap{"upper": strings.ToUpper})
	require.NoError(t, s.LoadBaseTemplates(bad, "html"))
	assert.Error(t, s.Compose("layout", "partials", "pages"))
}
