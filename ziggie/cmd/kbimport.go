// Command kbimport builds the chatbot knowledge base by scraping the
// portfolio site's project pages into the YAML file the server loads at
// startup.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"ziggie/ziggie/services/kb"
	"ziggie/ziggie/utils/logging"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

func main() {
	logging.InitLogger()
	var (
		out     = flag.String("out", "./ziggie/data/portfolio.yaml", "output YAML path")
		timeout = flag.Duration("timeout", 15*time.Second, "per-page fetch timeout")
	)
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kbimport [-out path] url [url...]")
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	base := kb.Load(*out)

	for _, url := range urls {
		project, err := scrapeProject(client, url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", url, err)
			continue
		}
		base.Projects = upsertProject(base.Projects, project)
		fmt.Printf("imported %s (%d keywords)\n", project.Name, len(project.Keywords))
	}

	raw, err := yaml.Marshal(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal knowledge base:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write knowledge base:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d projects)\n", *out, len(base.Projects))
}

func scrapeProject(client *http.Client, url string) (kb.Project, error) {
	resp, err := client.Get(url)
	if err != nil {
		return kb.Project{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return kb.Project{}, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return kb.Project{}, err
	}

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if desc == "" {
		desc = firstSentence(doc.Find("p").First().Text())
	}

	var stack []string
	doc.Find("[data-tech], .tech-stack li, .tags li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			stack = append(stack, t)
		}
	})

	keywords := keywordsFrom(name, stack)
	if len(keywords) == 0 {
		return kb.Project{}, fmt.Errorf("no keywords extracted")
	}

	return kb.Project{
		Name:        name,
		Type:        strings.TrimSpace(doc.Find(".project-type").First().Text()),
		Description: strings.TrimSpace(desc),
		TechStack:   stack,
		Keywords:    keywords,
	}, nil
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i > 0 {
		return text[:i+1]
	}
	return text
}

func keywordsFrom(name string, stack []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) < 3 || seen[word] {
			return
		}
		seen[word] = true
		out = append(out, word)
	}
	for _, w := range strings.Fields(name) {
		add(w)
	}
	for _, t := range stack {
		add(t)
	}
	return out
}

func upsertProject(projects []kb.Project, p kb.Project) []kb.Project {
	for i, existing := range projects {
		if strings.EqualFold(existing.Name, p.Name) {
			projects[i] = p
			return projects
		}
	}
	return append(projects, p)
}
