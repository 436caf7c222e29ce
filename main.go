// SPDX-License-Identifier: MPL-2.0

package main

import cmd "pynest/cmd/pynest"

func main() {
	cmd.Execute()
}
