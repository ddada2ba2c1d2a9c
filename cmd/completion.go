// Package cmd provides CLI utilities for ams-compose.
package cmd

import (
	"fmt"
	"strings"
)

// commands lists every top-level ams-compose subcommand, used by the shell
// completion generators below.
var commands = []string{
	"init",
	"install",
	"update",
	"list",
	"validate",
	"clean",
	"schema",
	"sbom",
	"watch",
	"completion",
	"help",
}

func getCommandDescription(cmd string) string {
	descriptions := map[string]string{
		"init":       "Scaffold a starter ams-compose.yaml",
		"install":    "Install libraries named in the manifest",
		"update":     "Re-resolve refs and update installed libraries",
		"list":       "List installed libraries and their status",
		"validate":   "Check installed libraries against the lock file",
		"clean":      "Remove extracted libraries no longer in the manifest",
		"schema":     "Print the manifest and lock file JSON schemas",
		"sbom":       "Export a CycloneDX software bill of materials",
		"watch":      "Watch the manifest and re-install on change",
		"completion": "Generate a shell completion script",
		"help":       "Show help information",
	}
	return descriptions[cmd]
}

// GenerateBashCompletion generates a bash completion script.
func GenerateBashCompletion() string {
	return fmt.Sprintf(`# bash completion for ams-compose
_ams_compose_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%s"

    case "${prev}" in
        install|update)
            opts="--force --remote-probe --json"
            ;;
        list)
            opts="--json"
            ;;
        validate)
            opts="--json --conflicts"
            ;;
        clean)
            opts="--yes -y --json"
            ;;
        sbom)
            opts="--output --format"
            ;;
        completion)
            opts="bash zsh fish powershell"
            ;;
    esac

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _ams_compose_completions ams-compose
`, strings.Join(commands, " "))
}

// GenerateZshCompletion generates a zsh completion script.
func GenerateZshCompletion() string {
	cmdList := make([]string, len(commands))
	for i, c := range commands {
		cmdList[i] = fmt.Sprintf("    '%s:%s'", c, getCommandDescription(c))
	}

	return fmt.Sprintf(`#compdef ams-compose

_ams_compose() {
    local -a commands
    commands=(
%s
    )

    _arguments -C \
        '1: :->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                install|update)
                    _arguments \
                        '--force[Reinstall even when up to date]' \
                        '--remote-probe[Check upstream for newer commits]' \
                        '--json[JSON output]'
                    ;;
                list)
                    _arguments '--json[JSON output]'
                    ;;
                validate)
                    _arguments \
                        '--json[JSON output]' \
                        '--conflicts[Report overlapping local_path destinations]'
                    ;;
                clean)
                    _arguments \
                        '--yes[Skip confirmation]' \
                        '-y[Skip confirmation]' \
                        '--json[JSON output]'
                    ;;
                sbom)
                    _arguments \
                        '--output[Write to file instead of stdout]:path:' \
                        '--format[Output format]:format:(cyclonedx spdx)'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish powershell)'
                    ;;
            esac
            ;;
    esac
}

_ams_compose "$@"
`, strings.Join(cmdList, "\n"))
}

// GenerateFishCompletion generates a fish completion script.
func GenerateFishCompletion() string {
	var completions []string
	for _, c := range commands {
		completions = append(completions, fmt.Sprintf("complete -c ams-compose -f -n '__fish_use_subcommand' -a '%s' -d '%s'", c, getCommandDescription(c)))
	}

	completions = append(completions,
		"complete -c ams-compose -n '__fish_seen_subcommand_from install update' -l force -d 'Reinstall even when up to date'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from install update' -l remote-probe -d 'Check upstream for newer commits'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from install update list validate clean' -l json -d 'JSON output'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from validate' -l conflicts -d 'Report overlapping local_path destinations'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from clean' -l yes -s y -d 'Skip confirmation'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from sbom' -l output -d 'Write to file instead of stdout' -r",
		"complete -c ams-compose -n '__fish_seen_subcommand_from sbom' -l format -d 'Output format' -r -f -a 'cyclonedx spdx'",
		"complete -c ams-compose -n '__fish_seen_subcommand_from completion' -f -a 'bash zsh fish powershell'",
	)

	return strings.Join(completions, "\n")
}

// GeneratePowerShellCompletion generates a PowerShell completion script.
func GeneratePowerShellCompletion() string {
	cmdArray := make([]string, len(commands))
	for i, c := range commands {
		cmdArray[i] = fmt.Sprintf("'%s'", c)
	}

	return fmt.Sprintf(`# PowerShell completion for ams-compose
Register-ArgumentCompleter -Native -CommandName ams-compose -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(%s)
    $tokens = $commandAst.ToString().Split(' ')

    if ($tokens.Count -eq 2) {
        $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }
    elseif ($tokens.Count -gt 2) {
        switch ($tokens[1]) {
            { $_ -in 'install','update' } {
                @('--force', '--remote-probe', '--json') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'list' {
                @('--json') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'validate' {
                @('--json', '--conflicts') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'clean' {
                @('--yes', '-y', '--json') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'sbom' {
                @('--output', '--format') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'completion' {
                @('bash', 'zsh', 'fish', 'powershell') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
        }
    }
}
`, strings.Join(cmdArray, ", "))
}
