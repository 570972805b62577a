package gamefaqs

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gamescraper/models"
	"gamescraper/search"
)

type siteGame struct {
	ID         string
	Title      string
	PlatformID int
	Label      string
	Genre      string
	Developer  string
	Release    string
	Players    string
	ESRB       string
	Desc       string
	Rating     string
	Images     string
}

var siteGames = []siteGame{
	{ID: "/snes/588741-super-metroid", Title: "Super Metroid", PlatformID: 63, Label: "SNES",
		Genre: "Action &raquo; Platformer", Developer: "Nintendo R&amp;D1", Release: "Apr 18, 1994 &raquo;",
		Players: "1 Player", ESRB: "K-A - Kids to Adults", Desc: "The third game in the Metroid series.",
		Rating: "4.19 / 5", Images: metroidImages},
	{ID: "/snes/519824-super-mario-world", Title: "Super Mario World", PlatformID: 63, Label: "SNES",
		Genre: "Action &raquo; Platformer", Developer: "Nintendo EAD", Release: "Aug 23, 1991",
		Players: "2 Players", Desc: "Mario and Luigi head to Dinosaur Land.", Rating: "4.22 / 5"},
	{ID: "/snes/588750-super-mario-world-2-yoshis-island", Title: "Super Mario World 2: Yoshi's Island", PlatformID: 63, Label: "SNES",
		Genre: "Action &raquo; Platformer", Developer: "Nintendo EAD", Release: "Oct 04, 1995",
		Desc: "Yoshi carries Baby Mario.", Rating: "4.30 / 5"},
	{ID: "/genesis/454495-sonic-the-hedgehog", Title: "Sonic the Hedgehog", PlatformID: 54, Label: "Genesis",
		Genre: "Action &raquo; Platformer", Developer: "Sonic Team", Release: "Jun 23, 1991",
		Desc: "Sonic races through the Green Hill Zone.", Rating: "3.90 / 5", Images: sonicImages},
	{ID: "/genesis/563341-sonic-the-hedgehog-2", Title: "Sonic the Hedgehog 2", PlatformID: 54, Label: "Genesis",
		Genre: "Action &raquo; Platformer", Developer: "Sega Technical Institute", Release: "Nov 24, 1992"},
	{ID: "/genesis/586118-chakan", Title: "Chakan: The Forever Man", PlatformID: 54, Label: "Genesis",
		Genre: "Action", Developer: "Extended Play", Release: "1992"},
	{ID: "/ps/197341-final-fantasy-vii", Title: "Final Fantasy VII", PlatformID: 78, Label: "PS",
		Genre: "Role-Playing &raquo; Japanese-Style", Developer: "Square", Release: "Sep 07, 1997", ESRB: "T - Teen"},
	{ID: "/arcade/562916-tetris", Title: "Tetris", PlatformID: 2, Label: "Arcade",
		Genre: "Puzzle", Developer: "Atari Games", Release: "1988"},
	{ID: "/arcade/578478-metal-slug", Title: "Metal Slug", PlatformID: 2, Label: "Arcade",
		Genre: "Action &raquo; Shooter", Developer: "Nazca", Release: "1996"},
	{ID: "/arcade/583868-cadillacs-and-dinosaurs", Title: "Cadillacs and Dinosaurs", PlatformID: 2, Label: "Arcade",
		Genre: "Action &raquo; Beat-'Em-Up", Developer: "Capcom", Release: "1993"},
}

const metroidImages = `<html><body>
<div class="pod game_imgs"><div class="head"><h2 class="title">Box</h2></div><div class="body">
<div class="boxshot"><a href="/snes/588741-super-metroid/images/10"><img src="/a/box/10_thumb.png"></a><div class="region">US</div></div>
<div class="boxshot"><a href="/snes/588741-super-metroid/images/11"><img src="/a/box/11_thumb.png"></a><div class="region">JP</div></div>
<div class="boxshot"><a href="/snes/588741-super-metroid/images/10"><img src="/a/box/10_thumb.png"></a><div class="region">EU</div></div>
</div></div>
<div class="pod game_imgs"><div class="head"><h2 class="title">Screenshots</h2></div><div class="body">
<a href="#"><img src="/a/ss/1_thumb.png" alt="Title Screen"></a>
<a href="#"><img src="/a/ss/2_thumb.png" alt="Ceres Station"></a>
<a href="#"><img src="/a/ss/3_thumb.png" alt="Brinstar"></a>
</div></div>
</body></html>`

const sonicImages = `<html><body>
<div class="pod game_imgs"><div class="head"><h2 class="title">Screenshots</h2></div><div class="body">
<a href="#"><img src="/a/ss/20_thumb.png" alt="Green Hill Zone"></a>
<a href="#"><img src="/a/ss/21_thumb.png" alt="Marble Zone"></a>
</div></div>
</body></html>`

var boxSetPages = map[string]string{
	"/snes/588741-super-metroid/images/10": `<html><body><div class="pod img_gallery"><div class="body">
<div class="boxshot"><img src="/a/box/10_front_thumb.png"><div class="caption">Front</div></div>
<div class="boxshot"><img src="/a/box/10_back_thumb.png"><div class="caption">Back</div></div>
<div class="boxshot"><img src="/a/box/10_spine_thumb.png"><div class="caption">Spine</div></div>
</div></div></body></html>`,
	"/snes/588741-super-metroid/images/11": `<html><body><div class="pod img_gallery"><div class="body">
<div class="boxshot"><img src="/a/box/11_front_thumb.png" alt="Front"></div>
</div></div></body></html>`,
}

// fakeSite serves a tiny GameFAQs look-alike.
type fakeSite struct {
	*httptest.Server
	searches atomic.Int32
	pages    atomic.Int32
	images   atomic.Int32
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{}
	site.Server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.Close)
	return site
}

func (f *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	switch {
	case p == "/search_advanced":
		f.searches.Add(1)
		f.serveSearch(w, r)
	case strings.HasPrefix(p, "/a/"):
		f.images.Add(1)
		f.serveImage(w, p)
	case boxSetPages[p] != "":
		f.pages.Add(1)
		fmt.Fprint(w, boxSetPages[p])
	case strings.HasSuffix(p, "/images"):
		f.pages.Add(1)
		for _, g := range siteGames {
			if g.ID+"/images" == p && g.Images != "" {
				fmt.Fprint(w, g.Images)
				return
			}
		}
		http.NotFound(w, r)
	default:
		f.pages.Add(1)
		for _, g := range siteGames {
			if g.ID == p {
				fmt.Fprint(w, detailPage(g))
				return
			}
		}
		http.NotFound(w, r)
	}
}

// serveSearch returns games of the requested platform whose title holds
// every query word.
func (f *fakeSite) serveSearch(w http.ResponseWriter, r *http.Request) {
	platformID, _ := strconv.Atoi(r.URL.Query().Get("platform"))
	words := strings.Fields(search.NormalizeTitle(r.URL.Query().Get("game")))

	var b strings.Builder
	b.WriteString(`<html><body><div class="search_results">`)
	for _, g := range siteGames {
		if g.PlatformID != platformID || len(words) == 0 || !containsAll(g.Title, words) {
			continue
		}
		fmt.Fprintf(&b, `<div class="sr_row"><div class="sr_name"><a href="%s">%s</a></div><div class="sr_platform">%s</div></div>`,
			g.ID, html.EscapeString(g.Title), g.Label)
	}
	b.WriteString(`</div></body></html>`)
	fmt.Fprint(w, b.String())
}

func containsAll(title string, words []string) bool {
	have := make(map[string]bool)
	for _, w := range strings.Fields(search.NormalizeTitle(title)) {
		have[w] = true
	}
	for _, w := range words {
		if !have[w] {
			return false
		}
	}
	return true
}

func detailPage(g siteGame) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1 class="page-title">%s</h1>`, html.EscapeString(g.Title))
	b.WriteString(`<div class="pod pod_gameinfo"><div class="body"><ul>`)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, `<li><div class="content"><b>%s:</b> <a href="#">%s</a></div></li>`, label, value)
		}
	}
	row("Genre", g.Genre)
	row("Developer", g.Developer)
	row("Release", g.Release)
	row("Local Players", g.Players)
	row("ESRB", g.ESRB)
	b.WriteString(`</ul></div></div>`)
	if g.Desc != "" {
		fmt.Fprintf(&b, `<div class="game_desc">%s</div>`, html.EscapeString(g.Desc))
	}
	if g.Rating != "" {
		fmt.Fprintf(&b, `<div class="mygames_stats_rate"><a href="#">%s</a></div>`, g.Rating)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func (f *fakeSite) serveImage(w http.ResponseWriter, p string) {
	switch {
	case strings.Contains(p, "_thumb"):
		writePNG(w, 4, 4)
	case strings.Contains(p, "/box/11_front"):
		// oversized scan
		writePNG(w, 1600, 400)
	case strings.Contains(p, "/ss/3"):
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<!DOCTYPE html><html><body>blocked</body></html>")
	default:
		writePNG(w, 64, 48)
	}
}

func writePNG(w http.ResponseWriter, width, height int) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func testSettings(t *testing.T, baseURL, cacheDir string) *models.Settings {
	t.Helper()
	s := models.DefaultSettings()
	s.BaseURL = baseURL
	s.CacheDir = cacheDir
	s.OutputDir = t.TempDir()
	s.CloudflareBypass = false
	s.RatePerSecond = 0
	s.Retries = 0
	s.RequestTimeout = 5 * time.Second
	return s
}

func newTestService(t *testing.T, site *fakeSite, cacheDir string) *Service {
	t.Helper()
	svc, err := New(testSettings(t, site.URL, cacheDir), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}
