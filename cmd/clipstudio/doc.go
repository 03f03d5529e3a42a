// Command clipstudio is the terminal front end for the clip wizard: upload
// a video, review cut suggestions, fine-tune a clip, run the safety check,
// and schedule the publish.
package main
