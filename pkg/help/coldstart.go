package help

const ColdstartYAML = `# inbox-digest Quick Start

views:
  aggregate: "Inbox or label listing: summarize the important rows"
  single: "An opened message: summarize its body"

summarizers:
  ai: "Local Ollama model, downloaded on first use if missing"
  rule: "Rule-based fallback, always available (--no-ai forces it)"

commands:
  summarize_inbox: |
    inbox-digest analyze --page saved/inbox.html#inbox

  summarize_message: |
    inbox-digest analyze --page saved/message.html#inbox/FMfcgzQ

  machine_output: |
    inbox-digest analyze --page saved/inbox.html --format json

  follow_navigation: |
    # one location per line on stdin; ":toggle", ":hover", ":leave", ":close" drive the overlay
    inbox-digest watch --page saved/inbox.html#inbox

  inspect_prompt: |
    inbox-digest prompt --page saved/inbox.html

  run_server: |
    inbox-digest serve --listen 127.0.0.1:8787
    inbox-digest analyze --remote http://127.0.0.1:8787 --page saved/inbox.html

  history: |
    inbox-digest history
    inbox-digest history --cycles
    inbox-digest history --stats
    inbox-digest prune --older-than 30d

config_example: |
  settle_delay: 1.5s
  load_delay: 5s
  navigation_delay: 3s
  dismiss_after: 20s
  max_records: 25
  ai_timeout: 60s
  ollama:
    enabled: true
    endpoint: http://localhost:11434
    model: gemma3:1b
    requests_per_minute: 30
  db_path: inbox-digest.db
  listen_addr: 127.0.0.1:8787
`
