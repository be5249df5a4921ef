package mcpserver

// SidecarFormat describes the YAML sidecar that dates a media file. LLM
// clients should follow it when editing sidecars by hand.
const SidecarFormat = `# Chronogrid Sidecar Format

A media file may have a sidecar next to it named after the full file name
plus ` + "`" + `.yaml` + "`" + `. The media file itself is never modified.

` + "```" + `text
trip/img_001.jpg        media file
trip/img_001.jpg.yaml   sidecar
` + "```" + `

## Structure

` + "```" + `yaml
date: 2023-01-05      # OPTIONAL - YYYY-MM-DD; overrides the file modification date
title: Harbour at dawn # OPTIONAL - searchable with find_media
tags:                  # OPTIONAL - list of words, searchable with find_media
  - trip
` + "```" + `

## Rules

1. **Date key.** ` + "`" + `date` + "`" + ` wins over ` + "`" + `taken` + "`" + `, which wins over ` + "`" + `created` + "`" + `.
   ` + "`" + `set_media_date` + "`" + ` always writes ` + "`" + `date` + "`" + ` and removes the other two.
2. **Date form.** ` + "`" + `YYYY-MM-DD` + "`" + `; a time part after the day is ignored.
   Values that do not parse keep the file in the catalog but out of the calendar.
3. **No sidecar** means the file is dated by its modification time.
4. **Unknown keys** are preserved when the date is rewritten.
5. **Encoding** is UTF-8. A sidecar that is not valid YAML is ignored.
`
