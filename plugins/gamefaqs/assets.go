package gamefaqs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"gamescraper/models"
	"gamescraper/search"
)

// supportedAssets are the kinds the images pages provide.
var supportedAssets = []models.AssetKind{
	models.AssetTitle,
	models.AssetSnap,
	models.AssetBoxFront,
	models.AssetBoxBack,
}

func isSupported(kind models.AssetKind) bool {
	for _, k := range supportedAssets {
		if k == kind {
			return true
		}
	}
	return false
}

// fullSizeURL turns a thumbnail URL into the full size image URL.
func fullSizeURL(thumb string) string {
	i := strings.LastIndex(thumb, "_thumb")
	if i < 0 {
		return thumb
	}
	return thumb[:i] + thumb[i+len("_thumb"):]
}

func assetExt(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	ext := strings.ToLower(path.Ext(u))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif":
		return ext
	default:
		return ".jpg"
	}
}

type assetCrawl struct {
	assets     []models.Asset
	titleShown bool
	firstSnap  *models.Asset
	noImages   bool
	err        error
}

// crawlAssets visits the images page of a candidate and every box set page
// it links to.
func (s *Service) crawlAssets(ctx context.Context, c search.Candidate) ([]models.Asset, error) {
	collector := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)
	collector.SetClient(s.fetcher.HTTPClient())

	crawl := &assetCrawl{}

	collector.OnRequest(func(r *colly.Request) {
		if err := s.fetcher.Wait(ctx); err != nil {
			crawl.err = err
			r.Abort()
			return
		}
		s.trace("visiting", zap.String("url", r.URL.String()))
	})
	collector.OnResponse(func(r *colly.Response) {
		s.fetcher.Dump(r.Request.URL.String(), r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		page := r.Request.Ctx.Get("page")
		// a game without pictures has no images page
		if r.StatusCode == http.StatusNotFound && page == "images" {
			crawl.noImages = true
			return
		}
		if page == "boxset" && ctx.Err() == nil {
			s.logger.Warn("skipping box set page", zap.String("url", r.Request.URL.String()), zap.Error(err))
			return
		}
		if crawl.err == nil {
			crawl.err = fmt.Errorf("visit %s: %w", r.Request.URL, err)
		}
	})

	collector.OnHTML("div.pod.game_imgs", func(e *colly.HTMLElement) {
		if e.Request.Ctx.Get("page") != "images" {
			return
		}
		heading := strings.ToLower(collapseSpaces(e.ChildText("h2")))
		switch {
		case strings.HasPrefix(heading, "box"):
			e.ForEach("div.boxshot", func(_ int, box *colly.HTMLElement) {
				href := box.ChildAttr("a", "href")
				if href == "" {
					return
				}
				pageCtx := colly.NewContext()
				pageCtx.Put("page", "boxset")
				pageCtx.Put("region", collapseSpaces(box.ChildText("div.region")))
				// fetch failures are reported through OnError
				var visited *colly.AlreadyVisitedError
				if err := collector.Request(http.MethodGet, box.Request.AbsoluteURL(href), nil, pageCtx, nil); errors.As(err, &visited) {
					s.trace("box set already visited", zap.String("url", href))
				}
			})
		case strings.HasPrefix(heading, "screenshot"):
			e.ForEach("img", func(_ int, img *colly.HTMLElement) {
				crawl.addScreenshot(img)
			})
		}
	})

	collector.OnHTML("div.pod.img_gallery div.boxshot", func(e *colly.HTMLElement) {
		if e.Request.Ctx.Get("page") != "boxset" {
			return
		}
		caption := strings.ToLower(collapseSpaces(e.ChildText("div.caption")))
		if caption == "" {
			caption = strings.ToLower(e.ChildAttr("img", "alt"))
		}
		var kind models.AssetKind
		switch {
		case strings.Contains(caption, "front"):
			kind = models.AssetBoxFront
		case strings.Contains(caption, "back"):
			kind = models.AssetBoxBack
		default:
			return
		}
		thumb := e.Request.AbsoluteURL(e.ChildAttr("img", "src"))
		if thumb == "" {
			return
		}
		region := e.Request.Ctx.Get("region")
		name := kind.Name()
		if region != "" {
			name += " (" + region + ")"
		}
		crawl.assets = append(crawl.assets, models.Asset{
			Kind:        kind,
			DisplayName: name,
			URLThumb:    thumb,
			URL:         fullSizeURL(thumb),
			Region:      region,
		})
	})

	imagesCtx := colly.NewContext()
	imagesCtx.Put("page", "images")
	if err := collector.Request(http.MethodGet, s.baseURL+c.ID+"/images", nil, imagesCtx, nil); err != nil &&
		!crawl.noImages && crawl.err == nil {
		crawl.err = err
	}
	collector.Wait()

	if crawl.err == nil {
		crawl.err = ctx.Err()
	}
	if crawl.err != nil {
		return nil, fmt.Errorf("crawl images of %s: %w", c.ID, crawl.err)
	}
	if crawl.noImages {
		s.trace("no images page", zap.String("candidate", c.ID))
	}
	if !crawl.titleShown && crawl.firstSnap != nil {
		title := *crawl.firstSnap
		title.Kind = models.AssetTitle
		title.DisplayName = "Title (first screenshot)"
		crawl.assets = append(crawl.assets, title)
	}
	return crawl.assets, nil
}

func (c *assetCrawl) addScreenshot(img *colly.HTMLElement) {
	thumb := img.Request.AbsoluteURL(img.Attr("src"))
	if thumb == "" {
		return
	}
	caption := collapseSpaces(img.Attr("alt"))
	if caption == "" {
		caption = collapseSpaces(img.Attr("title"))
	}
	kind := models.AssetSnap
	if strings.Contains(strings.ToLower(caption), "title") {
		kind = models.AssetTitle
		c.titleShown = true
	}
	name := caption
	if name == "" {
		name = kind.Name()
	}
	asset := models.Asset{
		Kind:        kind,
		DisplayName: name,
		URLThumb:    thumb,
		URL:         fullSizeURL(thumb),
	}
	c.assets = append(c.assets, asset)
	if kind == models.AssetSnap && c.firstSnap == nil {
		c.firstSnap = &asset
	}
}
