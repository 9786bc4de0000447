// Package brand holds the two extraction use-sites of sitebrief: a brand
// profile distilled from a website, and a batch of social posts written
// for that brand. Both degrade to deterministic defaults so callers always
// have something to render.
package brand

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/pkg/extractor"
	"github.com/jmylchreest/sitebrief/pkg/schema"
)

// Platform is a social network a post targets.
type Platform string

const (
	Instagram Platform = "Instagram"
	LinkedIn  Platform = "LinkedIn"
	X         Platform = "X"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{Instagram, LinkedIn, X}

const (
	DefaultBrandName   = "Unknown Brand"
	DefaultDescription = "Brand description not available."
	DefaultCTA         = "Learn more"
)

// Profile is a brand summary.
type Profile struct {
	BrandName        string   `json:"brand_name" yaml:"brand_name" description:"Name of the brand" default:"Unknown Brand"`
	Description      string   `json:"description" yaml:"description" description:"One or two sentence summary of what the brand does" default:"Brand description not available."`
	ProductsServices []string `json:"products_services" yaml:"products_services" description:"Main products or services offered"`
	TargetAudience   []string `json:"target_audience" yaml:"target_audience" description:"Groups the brand speaks to"`
	Tone             string   `json:"tone" yaml:"tone" description:"Short phrase describing the brand voice"`
	Keywords         []string `json:"keywords" yaml:"keywords" description:"Search and hashtag keywords"`
	Colors           []string `json:"colors" yaml:"colors" description:"Brand colours as hex codes like #RRGGBB"`
}

// Post is one generated social post.
type Post struct {
	Platform Platform `json:"platform" yaml:"platform" description:"One of Instagram, LinkedIn, X" default:"Instagram" examples:"Instagram,LinkedIn,X" validate:"oneof=Instagram LinkedIn X"`
	Caption  string   `json:"caption" yaml:"caption" description:"Post body"`
	Hashtags []string `json:"hashtags" yaml:"hashtags" description:"3 to 7 hashtags starting with #"`
	CTA      string   `json:"cta" yaml:"cta" description:"Short call to action" default:"Learn more"`
	Tone     string   `json:"tone" yaml:"tone" description:"Short phrase describing the tone of voice"`
}

var (
	validate = validator.New()

	profileSchema = mustSchema(schema.NewSchema[Profile](
		schema.WithName("brand_profile"),
		schema.WithDescription("Concise brand profile extracted from website text"),
	))
	postsSchema = mustSchema(schema.NewSchema[Post](
		schema.WithName("posts"),
		schema.WithDescription("Social media posts for the brand"),
		schema.WithList("posts"),
	))
)

func mustSchema(s schema.Schema, err error) schema.Schema {
	if err != nil {
		panic(fmt.Sprintf("brand: %v", err))
	}
	return s
}

// ProfileSchema returns the profile schema with tone defaulting to tonePreset.
func ProfileSchema(tonePreset string) schema.Schema {
	s := profileSchema
	s.Fields = slices.Clone(profileSchema.Fields)
	schema.WithDefault("tone", tonePreset)(&s)
	return s
}

// PostsSchema returns the list schema for generated posts. Output may be a
// bare array or wrapped as {"posts": [...]}.
func PostsSchema() schema.Schema {
	s := postsSchema
	s.Fields = slices.Clone(postsSchema.Fields)
	return s
}

// DefaultProfile is the profile used when nothing could be extracted.
func DefaultProfile(tonePreset string) Profile {
	return Profile{
		BrandName:        DefaultBrandName,
		Description:      DefaultDescription,
		ProductsServices: []string{},
		TargetAudience:   []string{},
		Tone:             tonePreset,
		Keywords:         []string{},
		Colors:           []string{},
	}
}

// DefaultPosts is the single post used when no generated post survives.
func DefaultPosts(p Profile, tonePreset string) []Post {
	return []Post{{
		Platform: Instagram,
		Caption:  fmt.Sprintf("Discover %s: %s", p.BrandName, p.Description),
		Hashtags: []string{"#brand", "#marketing"},
		CTA:      DefaultCTA,
		Tone:     toneFor(p, tonePreset),
	}}
}

// DecodeProfile maps an extraction result onto a Profile. Colours that are
// not hex codes are dropped.
func DecodeProfile(res *extractor.Result) (Profile, error) {
	rec := res.Record()
	if rec == nil {
		return Profile{}, errors.New("no profile record")
	}

	var p Profile
	if err := rec.Decode(&p); err != nil {
		return Profile{}, err
	}
	p.Colors = slices.DeleteFunc(p.Colors, func(c string) bool {
		return validate.Var(c, "hexcolor") != nil
	})
	return p, nil
}

// DecodePosts maps an extraction result onto posts. Posts for unsupported
// platforms are dropped; an empty tone takes the profile tone.
func DecodePosts(res *extractor.Result, p Profile) ([]Post, error) {
	if res == nil {
		return nil, errors.New("no posts result")
	}

	posts := make([]Post, 0, len(res.Records))
	for i, rec := range res.Records {
		var post Post
		if err := rec.Decode(&post); err != nil {
			return nil, fmt.Errorf("post %d: %w", i, err)
		}
		if err := validate.Struct(post); err != nil {
			logger.Debug("dropping invalid post", "index", i, "platform", post.Platform, "error", err)
			continue
		}
		if post.Tone == "" {
			post.Tone = p.Tone
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ExtractProfile recovers a profile from generated text. On failure it
// returns DefaultProfile(tonePreset) along with the error.
func ExtractProfile(raw, tonePreset string) (Profile, error) {
	res, err := extractor.Extract(raw, ProfileSchema(tonePreset))
	if err != nil {
		return DefaultProfile(tonePreset), err
	}
	p, err := DecodeProfile(res)
	if err != nil {
		return DefaultProfile(tonePreset), err
	}
	return p, nil
}

// ExtractPosts recovers posts from generated text. When the text yields no
// usable post it returns DefaultPosts, together with the extraction error
// if there was one.
func ExtractPosts(raw string, p Profile, tonePreset string) ([]Post, error) {
	res, err := extractor.Extract(raw, PostsSchema())
	if err != nil {
		return DefaultPosts(p, tonePreset), err
	}
	posts, err := DecodePosts(res, p)
	if err != nil {
		return DefaultPosts(p, tonePreset), err
	}
	if len(posts) == 0 {
		logger.Debug("no usable posts, using default", "brand", p.BrandName, "dropped", res.Dropped)
		return DefaultPosts(p, tonePreset), nil
	}
	for i := range posts {
		if posts[i].Tone == "" {
			posts[i].Tone = tonePreset
		}
	}
	return posts, nil
}

func toneFor(p Profile, tonePreset string) string {
	if p.Tone != "" {
		return p.Tone
	}
	return tonePreset
}
