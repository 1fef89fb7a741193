package checks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
	bshttp "github.com/abdul-hamid-achik/branchspec/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainSHA    = "1111111111111111111111111111111111111111"
	featureSHA = "2222222222222222222222222222222222222222"
)

// fakeGitHub serves canned JSON bodies keyed by escaped request path.
type fakeGitHub struct {
	mu     sync.Mutex
	routes map[string]string
	hits   map[string]int
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	f.mu.Lock()
	f.hits[path]++
	body, ok := f.routes[path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		return
	}
	_, _ = w.Write([]byte(body))
}

func branchJSON(name, sha string, protected bool) string {
	return fmt.Sprintf(`{"name": %q, "commit": {"sha": %q, "url": "https://api.github.com/repos/sima-claw-bot/msbuild/commits/%s"}, "protected": %t}`,
		name, sha, sha, protected)
}

func compareJSON(status string, ahead, behind int, mergeBase string) string {
	return fmt.Sprintf(`{"status": %q, "ahead_by": %d, "behind_by": %d, "merge_base_commit": {"sha": %q}}`,
		status, ahead, behind, mergeBase)
}

const repoPath = "/repos/sima-claw-bot/msbuild"

func healthyRoutes() map[string]string {
	return map[string]string{
		repoPath + "/branches/secondary-main": branchJSON("secondary-main", DefaultBaseSHA, false),
		repoPath + "/branches/main":           branchJSON("main", mainSHA, false),
		repoPath + "/branches/fix%2Fissue-13217-roslyn-codetaskfactory-references": branchJSON(
			DefaultFeatureBranch, featureSHA, false),
		repoPath + "/compare/" + DefaultBaseSHA + "..." + mainSHA: compareJSON("ahead", 3, 0, DefaultBaseSHA),
		repoPath + "/compare/secondary-main...fix%2Fissue-13217-roslyn-codetaskfactory-references": compareJSON(
			"ahead", 1, 0, DefaultBaseSHA),
		repoPath + "/commits/" + DefaultBaseSHA: `{
			"sha": "` + DefaultBaseSHA + `",
			"commit": {
				"message": "Merge pull request #13210",
				"author": {"name": "Ada", "email": "ada@example.com", "date": "2024-05-01T10:00:00Z"},
				"committer": {"name": "GitHub", "email": "noreply@github.com", "date": "2024-05-01T10:00:00Z"}
			}
		}`,
	}
}

const healthyReadme = `# msbuild fork

## Task 2

Created fix/issue-13217-roslyn-codetaskfactory-references from secondary-main
at dce7f33d3e54a7626be7b1e50132e9fa0ab8f52b to fix RoslynCodeTaskFactory references.
`

func healthyFiles() fstest.MapFS {
	return fstest.MapFS{
		"readme.md":  {Data: []byte(healthyReadme)},
		".gitignore": {Data: []byte("msbuild-repo/\n")},
	}
}

type fixture struct {
	fake *fakeGitHub
	env  *Env
}

func newFixture(t *testing.T, routes map[string]string, files fstest.MapFS) *fixture {
	t.Helper()
	fake := &fakeGitHub{routes: routes, hits: make(map[string]int)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := github.NewClient(bshttp.NewClient(github.HTTPOptions(server.URL, "")...), DefaultOwner, DefaultRepo)
	return &fixture{
		fake: fake,
		env:  &Env{GitHub: client, Files: files, Expect: DefaultExpectations()},
	}
}

func run(t *testing.T, name string, env *Env) *runner.RunResult {
	t.Helper()
	scenario, err := Get(name)
	require.NoError(t, err)
	result, err := runner.NewRunner(&runner.Config{AbortOnTransportError: true}).Run(context.Background(), scenario.Suite(env))
	require.NoError(t, err)
	return result
}

func failedNames(result *runner.RunResult) []string {
	var names []string
	for _, r := range result.Results {
		if !r.Passed && !r.Skipped {
			names = append(names, r.Name)
		}
	}
	return names
}

func TestSecondaryMain_AllPass(t *testing.T) {
	f := newFixture(t, healthyRoutes(), healthyFiles())

	result := run(t, "secondary-main", f.env)

	assert.Empty(t, failedNames(result))
	assert.Equal(t, 9, result.Passed)
	assert.True(t, result.OK())
	assert.Equal(t, "secondary-main branch in sima-claw-bot/msbuild", result.Description)
	assert.Equal(t, "secondary-main SHA starts with expected prefix dce7f33d", result.Results[2].Name)
}

func TestSecondaryMain_MainBehind(t *testing.T) {
	routes := healthyRoutes()
	routes[repoPath+"/compare/"+DefaultBaseSHA+"..."+mainSHA] = compareJSON("behind", 0, 2, mainSHA)
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "secondary-main", f.env)

	require.Equal(t, []string{"secondary-main is an ancestor of main (main may have advanced)"}, failedNames(result))
	failed := result.Results[4]
	assert.Equal(t, runner.KindAssertion, failed.Kind)
	assert.Equal(t, "Expected main to be ahead of or identical to secondary-main, got status: behind", failed.Error)
}

func TestSecondaryMain_ProtectedAndWrongSHA(t *testing.T) {
	routes := healthyRoutes()
	routes[repoPath+"/branches/secondary-main"] = branchJSON("secondary-main", mainSHA, true)
	routes[repoPath+"/compare/"+mainSHA+"..."+mainSHA] = compareJSON("identical", 0, 0, mainSHA)
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "secondary-main", f.env)

	assert.Equal(t, []string{
		"secondary-main SHA starts with expected prefix dce7f33d",
		"secondary-main SHA matches expected full SHA",
		"secondary-main is not a protected branch",
	}, failedNames(result))
	assert.Equal(t, "Expected SHA to start with dce7f33d, got "+mainSHA, result.Results[2].Error)
}

func TestSecondaryMain_MissingBranchFailsDependents(t *testing.T) {
	routes := healthyRoutes()
	delete(routes, repoPath+"/branches/secondary-main")
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "secondary-main", f.env)

	assert.Equal(t, runner.KindHTTP, result.Results[0].Kind)
	assert.Contains(t, result.Results[0].Error, "API returned 404")
	assert.True(t, result.Results[1].Passed)
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		assert.Equal(t, runner.KindPrerequisite, result.Results[i].Kind, result.Results[i].Name)
	}
	assert.True(t, result.Results[8].Passed, "commit structure uses the expected SHA directly")
}

func TestSecondaryMain_CommitShape(t *testing.T) {
	routes := healthyRoutes()
	routes[repoPath+"/commits/"+DefaultBaseSHA] = `{"sha": "` + DefaultBaseSHA + `", "commit": {"message": "m", "author": {}}}`
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "secondary-main", f.env)

	last := result.Results[8]
	assert.False(t, last.Passed)
	assert.Equal(t, runner.KindShape, last.Kind)
}

func TestFeatureBranch_AllPass(t *testing.T) {
	f := newFixture(t, healthyRoutes(), healthyFiles())

	result := run(t, "feature-branch", f.env)

	assert.Empty(t, failedNames(result))
	assert.Equal(t, 10, result.Passed)
	assert.Equal(t, "feature branch "+DefaultFeatureBranch, result.Description)
}

func TestFeatureBranch_FetchesOncePerRun(t *testing.T) {
	f := newFixture(t, healthyRoutes(), healthyFiles())

	run(t, "feature-branch", f.env)

	assert.Equal(t, 1, f.fake.hits[repoPath+"/branches/fix%2Fissue-13217-roslyn-codetaskfactory-references"])
	assert.Equal(t, 1, f.fake.hits[repoPath+"/compare/secondary-main...fix%2Fissue-13217-roslyn-codetaskfactory-references"])
}

func TestFeatureBranch_ReadmeMissingComponent(t *testing.T) {
	files := healthyFiles()
	files["readme.md"] = &fstest.MapFile{Data: []byte(
		"## Task 2\nfix/issue-13217-roslyn-codetaskfactory-references from secondary-main at " + DefaultBaseSHA + "\n")}
	f := newFixture(t, healthyRoutes(), files)

	result := run(t, "feature-branch", f.env)

	require.Equal(t, []string{"readme.md documents issue 13217 and RoslynCodeTaskFactory"}, failedNames(result))
	assert.Equal(t, "readme.md should reference RoslynCodeTaskFactory", result.Results[8].Error)
}

func TestFeatureBranch_ReadmeMissingIssue(t *testing.T) {
	files := healthyFiles()
	files["readme.md"] = &fstest.MapFile{Data: []byte(
		"## Task 2\nBranched from secondary-main at " + DefaultBaseSHA + " for RoslynCodeTaskFactory.\n")}
	f := newFixture(t, healthyRoutes(), files)

	result := run(t, "feature-branch", f.env)

	issueCheck := result.Results[8]
	assert.False(t, issueCheck.Passed)
	assert.Equal(t, "readme.md should reference issue 13217", issueCheck.Error)
	for _, r := range result.Results[:7] {
		assert.True(t, r.Passed, r.Name)
	}
	assert.True(t, result.Results[9].Passed)
}

func TestFeatureBranch_NameContainsButDiffers(t *testing.T) {
	routes := healthyRoutes()
	routes[repoPath+"/branches/fix%2Fissue-13217-roslyn-codetaskfactory-references"] = branchJSON(
		DefaultFeatureBranch+"-v2", featureSHA, false)
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "feature-branch", f.env)

	exists := result.Results[0]
	convention := result.Results[1]
	assert.False(t, exists.Passed)
	assert.Equal(t, runner.KindAssertion, exists.Kind)
	assert.True(t, convention.Passed)
}

func TestFeatureBranch_BehindBase(t *testing.T) {
	routes := healthyRoutes()
	routes[repoPath+"/compare/secondary-main...fix%2Fissue-13217-roslyn-codetaskfactory-references"] = compareJSON(
		"diverged", 1, 2, mainSHA)
	f := newFixture(t, routes, healthyFiles())

	result := run(t, "feature-branch", f.env)

	assert.Equal(t, []string{
		"feature branch is based on secondary-main (compare shows ahead)",
		"feature branch merge base matches secondary-main SHA",
	}, failedNames(result))
	assert.Equal(t, "Feature branch should not be behind secondary-main, got 2", result.Results[3].Error)
}

func TestFeatureBranch_IgnoreFileMissing(t *testing.T) {
	files := healthyFiles()
	delete(files, ".gitignore")
	f := newFixture(t, healthyRoutes(), files)

	result := run(t, "feature-branch", f.env)

	last := result.Results[9]
	assert.False(t, last.Passed)
	assert.Equal(t, runner.KindAssertion, last.Kind)
	assert.Equal(t, ".gitignore file should exist", last.Error)
}

func TestFeatureBranch_ReadmeMissing(t *testing.T) {
	files := healthyFiles()
	delete(files, "readme.md")
	f := newFixture(t, healthyRoutes(), files)

	result := run(t, "feature-branch", f.env)

	assert.Equal(t, runner.KindFilesystem, result.Results[7].Kind)
	assert.Equal(t, runner.KindFilesystem, result.Results[8].Kind)
}

func TestFeatureBranch_Idempotent(t *testing.T) {
	f := newFixture(t, healthyRoutes(), healthyFiles())

	first := run(t, "feature-branch", f.env)
	second := run(t, "feature-branch", f.env)

	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Name, second.Results[i].Name)
		assert.Equal(t, first.Results[i].Passed, second.Results[i].Passed)
		assert.Equal(t, first.Results[i].Error, second.Results[i].Error)
	}
}

func TestAtHead(t *testing.T) {
	t.Run("main advanced", func(t *testing.T) {
		f := newFixture(t, healthyRoutes(), healthyFiles())

		result := run(t, "secondary-main-at-head", f.env)

		assert.Equal(t, []string{"main HEAD equals secondary-main SHA"}, failedNames(result))
		assert.Contains(t, result.Results[2].Error, "got status: ahead (ahead by 3)")
	})

	t.Run("main at base", func(t *testing.T) {
		routes := healthyRoutes()
		routes[repoPath+"/branches/main"] = branchJSON("main", DefaultBaseSHA, false)
		routes[repoPath+"/compare/"+DefaultBaseSHA+"..."+DefaultBaseSHA] = compareJSON("identical", 0, 0, DefaultBaseSHA)
		f := newFixture(t, routes, healthyFiles())

		result := run(t, "secondary-main-at-head", f.env)

		assert.True(t, result.OK())
	})
}

func TestTransportErrorAbortsRun(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := github.NewClient(bshttp.NewClient(github.HTTPOptions(server.URL, "")...), DefaultOwner, DefaultRepo)
	env := &Env{GitHub: client, Files: healthyFiles(), Expect: DefaultExpectations()}

	scenario, err := Get("secondary-main")
	require.NoError(t, err)
	result, err := runner.NewRunner(&runner.Config{AbortOnTransportError: true}).Run(context.Background(), scenario.Suite(env))

	var fatal *runner.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Len(t, result.Results, 1)
	assert.Equal(t, runner.KindTransport, result.Results[0].Kind)
	assert.NotEmpty(t, result.Fatal)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"feature-branch", "secondary-main", "secondary-main-at-head"}, Names())

	_, err := Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown scenario "nope"`)

	for _, name := range DefaultNames {
		_, err := Get(name)
		assert.NoError(t, err, name)
	}
}

func TestExpectations(t *testing.T) {
	e := DefaultExpectations()
	assert.Equal(t, "dce7f33d", e.SHAPrefix())
	assert.Equal(t, "issue-13217", e.IssueSlug())
	assert.NoError(t, e.Validate())

	partial := Expectations{BaseSHA: mainSHA, SHAPrefixLen: 12}.WithDefaults()
	assert.Equal(t, "111111111111", partial.SHAPrefix())
	assert.Equal(t, DefaultFeatureBranch, partial.FeatureBranch)
	assert.Equal(t, DefaultReadmeFile, partial.ReadmeFile)

	bad := DefaultExpectations()
	bad.BaseSHA = "DCE7"
	bad.FeatureBranch = bad.BaseBranch
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseSHA")
	assert.Contains(t, err.Error(), "featureBranch")
}

func TestExpectations_Variables(t *testing.T) {
	vars := DefaultExpectations().Variables()

	assert.Equal(t, DefaultBaseBranch, vars["baseBranch"])
	assert.Equal(t, "dce7f33d", vars["shaPrefix"])
	assert.Equal(t, "issue-13217", vars["issueSlug"])
	assert.Equal(t, DefaultSHAPrefixLen, vars["shaPrefixLength"])
}

func TestFeatureBranch_DigitOnlySHAs(t *testing.T) {
	const (
		baseDigits    = "1234567890123456789012345678901234567890"
		featureDigits = "1234567890123456789012345678901234567891"
	)
	routes := healthyRoutes()
	routes[repoPath+"/branches/secondary-main"] = branchJSON("secondary-main", baseDigits, false)
	routes[repoPath+"/branches/fix%2Fissue-13217-roslyn-codetaskfactory-references"] = branchJSON(
		DefaultFeatureBranch, featureDigits, false)
	routes[repoPath+"/compare/secondary-main...fix%2Fissue-13217-roslyn-codetaskfactory-references"] = compareJSON(
		"ahead", 1, 0, baseDigits)
	files := healthyFiles()
	files["readme.md"] = &fstest.MapFile{Data: []byte(
		"## Task 2\nCreated " + DefaultFeatureBranch + " from secondary-main at " + baseDigits +
			" to fix issue 13217 in RoslynCodeTaskFactory.\n")}
	f := newFixture(t, routes, files)
	f.env.Expect.BaseSHA = baseDigits

	result := run(t, "feature-branch", f.env)

	assert.Empty(t, failedNames(result))
	assert.Equal(t, "feature branch HEAD differs from secondary-main", result.Results[5].Name)

	// The same digits on both sides must fail the difference check.
	routes[repoPath+"/branches/fix%2Fissue-13217-roslyn-codetaskfactory-references"] = branchJSON(
		DefaultFeatureBranch, baseDigits, false)
	f = newFixture(t, routes, files)
	f.env.Expect.BaseSHA = baseDigits

	result = run(t, "feature-branch", f.env)

	assert.Equal(t, []string{"feature branch HEAD differs from secondary-main"}, failedNames(result))
}
