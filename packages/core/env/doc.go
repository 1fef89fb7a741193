// Package env handles variable resolution for branchspec suite files.
//
// It provides functionality for:
//   - Variable interpolation using {{variable}} syntax
//   - Environment references using {{$NAME}} syntax
//   - Values captured by earlier checks ({{name}} or {{check.name}})
//   - Loading .env files layered under the process environment
package env
