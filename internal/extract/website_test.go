package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bakeryHome = `<html><head><script>var x = "spam@tracker.io";</script></head>
<body>
  <header><a href="/">Home</a> <a href="/contact-us#form">Contact</a> <a href="about.html">About us</a>
  <a href="https://other.example/contact">Partner</a> <a href="/menu">Menu</a></header>
  <p>Fresh bread every morning.</p>
  <p>Jane Doe, Owner</p>
  <footer>
    <a href="mailto:Hello@JoesBakery.com?subject=Order">Write us</a>
    <a href="https://www.instagram.com/joesbakery/?hl=en">IG</a>
    <a href="http://facebook.com/joesbakery">FB</a>
  </footer>
</body></html>`

func TestWebsiteExtractor_Extract(t *testing.T) {
	page, err := NewWebsiteExtractor().Extract(bakeryHome, "https://joesbakery.com/")
	require.NoError(t, err)

	assert.Equal(t, "hello@joesbakery.com", page.Signal.Email)
	assert.Equal(t, "https://www.instagram.com/joesbakery/", page.Signal.InstagramURL)
	assert.Equal(t, "https://facebook.com/joesbakery", page.Signal.FacebookURL)
	assert.Equal(t, "Jane Doe (Owner)", page.Signal.OwnerName)
	assert.Equal(t, []string{
		"https://joesbakery.com/contact-us",
		"https://joesbakery.com/about.html",
	}, page.Links)
}

func TestWebsiteExtractor_TextEmailFallback(t *testing.T) {
	html := `<html><body><script>var a="x@tracker.io"</script>
	<p>Orders: orders@joesbakery.com</p></body></html>`

	page, err := NewWebsiteExtractor().Extract(html, "https://joesbakery.com/contact")
	require.NoError(t, err)
	assert.Equal(t, "orders@joesbakery.com", page.Signal.Email)
	assert.Empty(t, page.Signal.OwnerName)
	assert.Empty(t, page.Links)
}

func TestWebsiteExtractor_SkipsPlaceholderEmails(t *testing.T) {
	html := `<p>user@example.com</p><p>logo@2x.png</p>`

	page, err := NewWebsiteExtractor().Extract(html, "https://joesbakery.com/")
	require.NoError(t, err)
	assert.Empty(t, page.Signal.Email)
}

func TestWebsiteExtractor_BadPageURL(t *testing.T) {
	_, err := NewWebsiteExtractor().Extract("<p></p>", "://bad")
	assert.Error(t, err)
}
