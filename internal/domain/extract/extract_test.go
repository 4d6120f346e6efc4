package extract_test

import (
	"context"
	"testing"

	"github.com/okian/skillsift/internal/domain/extract"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
	. "github.com/smartystreets/goconvey/convey"
)

// stubAnnotator replays fixed annotations without parse features.
type stubAnnotator struct {
	annotations []extract.Annotation
}

func (s *stubAnnotator) Annotate(_ context.Context, _ string) ([]extract.Annotation, error) {
	return s.annotations, nil
}

// chunkingAnnotator adds noun-phrase candidates on top of annotations.
type chunkingAnnotator struct {
	stubAnnotator
	chunks []extract.Annotation
}

func (s *chunkingAnnotator) NounChunks(_ context.Context, _ string) ([]extract.Annotation, error) {
	return s.chunks, nil
}

// stubMatcher replays a fixed best-match answer.
type stubMatcher struct {
	best  string
	score int
}

func (s *stubMatcher) BestMatch(_ string, _ []string) (string, int) { return s.best, s.score }

// tableVectorizer scores references from a fixed table.
type tableVectorizer struct {
	scores map[string]float64
}

func (s *tableVectorizer) Similarity(_, ref string) float64 { return s.scores[ref] }

// tableEmbedder maps texts to fixed vectors.
type tableEmbedder struct {
	vectors map[string][]float64
}

func (s *tableEmbedder) Embed(text string) []float64 { return s.vectors[text] }

func testOntology() *ontology.Ontology {
	return ontology.New(
		ontology.WithSkills(map[string]string{"python": "Python", "docker": "Docker", "go": "Go"}),
		ontology.WithAliases(map[string][]string{"python": {"py"}}),
		ontology.WithCategories(map[string][]string{"tools": {"docker"}}),
	)
}

func TestNERExtractor(t *testing.T) {
	Convey("Given annotations with mixed labels", t, func() {
		ont := testOntology()
		annotator := &stubAnnotator{annotations: []extract.Annotation{
			{Start: 0, End: 6, Text: "Python", Label: extract.SkillLabel, Sentence: "Python expert."},
			{Start: 10, End: 16, Text: "Docker", Label: "product", Sentence: "Docker daily."},
			{Start: 20, End: 26, Text: "Python", Label: "date", Sentence: "ignored"},
			{Start: 30, End: 37, Text: "Haskell", Label: extract.SkillLabel, Sentence: "not in vocabulary"},
		}}
		extractor := extract.NewNERExtractor(ont, annotator)

		Convey("When extracting with a zero threshold", func() {
			matches, err := extractor.Extract(context.Background(), "text", 0)

			Convey("Then confidences should follow annotation provenance", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 2)
				So(matches[0].Skill, ShouldEqual, "Python")
				So(matches[0].Confidence, ShouldAlmostEqual, 0.90, 1e-9)
				So(matches[1].Skill, ShouldEqual, "Docker")
				So(matches[1].Confidence, ShouldAlmostEqual, 0.70, 1e-9)
			})

			Convey("Then out-of-vocabulary spans should be dropped", func() {
				for _, m := range matches {
					So(m.Skill, ShouldNotEqual, "Haskell")
				}
			})
		})

		Convey("When extracting with a high threshold", func() {
			matches, err := extractor.Extract(context.Background(), "text", 0.8)

			Convey("Then only the skill-labeled span should survive", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
				So(matches[0].Skill, ShouldEqual, "Python")
			})
		})
	})

	Convey("Given a backend with noun-phrase chunking", t, func() {
		ont := testOntology()
		annotator := &chunkingAnnotator{chunks: []extract.Annotation{
			{Start: 0, End: 2, Text: "py", Label: "np", Sentence: "py services"},
			{Start: 5, End: 11, Text: "Gerbil", Label: "np", Sentence: "not a skill"},
		}}
		extractor := extract.NewNERExtractor(ont, annotator)

		Convey("When extracting", func() {
			matches, err := extractor.Extract(context.Background(), "text", 0)

			Convey("Then vocabulary chunks should match at chunk confidence", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
				So(matches[0].Skill, ShouldEqual, "Python")
				So(matches[0].Confidence, ShouldAlmostEqual, 0.60, 1e-9)
				So(matches[0].Method, ShouldEqual, model.MethodNER)
			})
		})
	})
}

func TestLexicalExtractor(t *testing.T) {
	Convey("Given the lexical extractor", t, func() {
		ont := ontology.New()

		Convey("When the text contains symbol-bearing names", func() {
			extractor := extract.NewLexicalExtractor(ont, &stubMatcher{})
			matches, err := extractor.Extract(context.Background(), "Worked with C++ and C# services", 200)

			Convey("Then exact patterns should hit regardless of threshold", func() {
				So(err, ShouldBeNil)
				skills := skillNames(matches)
				So(skills, ShouldContain, "C++")
				So(skills, ShouldContain, "C#")
				for _, m := range matches {
					So(m.Confidence, ShouldAlmostEqual, 0.95, 1e-9)
				}
			})
		})

		Convey("When the text mentions R with a programming context", func() {
			extractor := extract.NewLexicalExtractor(ont, &stubMatcher{})
			matches, err := extractor.Extract(context.Background(), "R programming for analysis", 200)

			So(err, ShouldBeNil)
			So(skillNames(matches), ShouldContain, "R")
		})

		Convey("When the text mentions R without context", func() {
			extractor := extract.NewLexicalExtractor(ont, &stubMatcher{})
			matches, err := extractor.Extract(context.Background(), "Vitamin R is great", 200)

			So(err, ShouldBeNil)
			So(skillNames(matches), ShouldNotContain, "R")
		})

		Convey("When fuzzy matching clears the percent threshold", func() {
			extractor := extract.NewLexicalExtractor(ont, &stubMatcher{best: "Python", score: 85})
			matches, err := extractor.Extract(context.Background(), "pythn", 80)

			Convey("Then confidence should be the score over 100", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldNotBeEmpty)
				So(matches[0].Skill, ShouldEqual, "Python")
				So(matches[0].Confidence, ShouldAlmostEqual, 0.85, 1e-9)
			})
		})

		Convey("When fuzzy matching falls below the threshold", func() {
			extractor := extract.NewLexicalExtractor(ont, &stubMatcher{best: "Python", score: 60})
			matches, err := extractor.Extract(context.Background(), "pyhtno", 80)

			So(err, ShouldBeNil)
			So(matches, ShouldBeEmpty)
		})
	})
}

func TestCorpusExtractor(t *testing.T) {
	Convey("Given a vectorizer with known scores", t, func() {
		ont := testOntology()
		extractor := extract.NewCorpusExtractor(ont, &tableVectorizer{scores: map[string]float64{
			"Python": 0.8,
			"Docker": 0.1,
		}})

		Convey("When extracting with a mid threshold", func() {
			matches, err := extractor.Extract(context.Background(), "Python everywhere", 0.25)

			Convey("Then only references above threshold should match", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
				So(matches[0].Skill, ShouldEqual, "Python")
				So(matches[0].Confidence, ShouldAlmostEqual, 0.8, 1e-9)
				So(matches[0].Method, ShouldEqual, model.MethodCorpus)
			})
		})

		Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := extractor.Extract(ctx, "Python", 0)

			So(err, ShouldNotBeNil)
		})
	})
}

func TestSemanticExtractor(t *testing.T) {
	Convey("Given an embedder with fixed vectors", t, func() {
		ont := testOntology()
		embedder := &tableEmbedder{vectors: map[string][]float64{
			"Docker": {1, 0},
			"Go":     {0, 1},
			"Python": {0.6, 0.8},
			"query":  {1, 0},
		}}
		extractor := extract.NewSemanticExtractor(ont, embedder)

		Convey("When extracting with a high cosine threshold", func() {
			matches, err := extractor.Extract(context.Background(), "query", 0.9)

			Convey("Then only near-parallel references should match", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
				So(matches[0].Skill, ShouldEqual, "Docker")
				So(matches[0].Confidence, ShouldAlmostEqual, 1.0, 1e-9)
				So(matches[0].Method, ShouldEqual, model.MethodSemantic)
			})
		})

		Convey("When extracting with a lower threshold", func() {
			matches, err := extractor.Extract(context.Background(), "query", 0.5)

			Convey("Then partially aligned references should match too", func() {
				So(err, ShouldBeNil)
				So(skillNames(matches), ShouldContain, "Python") // cosine 0.6
				So(skillNames(matches), ShouldNotContain, "Go")  // orthogonal
			})
		})
	})
}

func skillNames(matches []model.SkillMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Skill)
	}
	return out
}
