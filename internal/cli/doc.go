// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package cli provides the root command for callout's CLI.

This package creates the Cobra command tree and handles global concerns like
version information and persistent flags. Individual commands are
implemented in the internal/commands subpackages.

# Command Tree

	callout
	├── call      Send one HTTP request
	├── serve     Serve the dispatch API
	├── version   Show version
	└── help      Show help

# Global Flags

	--verbose, -v   Debug logging
	--quiet, -q     Errors only; print the bare body on success
	--json          Machine-readable output
	--config        Path to config file

# Exit Codes

	0  success
	1  the HTTP call failed
	2  invalid input
	3  configuration error
*/
package cli
