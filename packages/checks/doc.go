// Package checks defines the built-in branch verification scenarios.
//
// Each scenario is a named list of runner checks built against an Env:
//   - secondary-main: the base branch exists at the expected SHA, is an
//     ancestor of main and is not protected
//   - feature-branch: the feature branch exists, follows the naming
//     convention, sits on top of the base branch and is documented locally
//   - secondary-main-at-head: main has not advanced past the base branch
//
// Expected values come from Expectations, whose defaults describe the
// sima-claw-bot/msbuild fork and can be overridden from configuration.
package checks
