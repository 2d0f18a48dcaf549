package analysis

// instructionPrompt is the fixed instruction set sent with every request.
// The declared response schema (schema.go) enforces the field shapes; the
// prompt carries the behavioral requirements the schema cannot express.
const instructionPrompt = `You are an expert sales coach analyzing a recorded sales call.
Listen to the attached audio and produce a single JSON object that follows the response schema exactly.

Requirements:
1. Detect the spoken language of the call. EVERY string in your response must be written in that language, verbatim, with no translation.
2. Transcribe the full call as an ordered list of speaker turns. Infer the role of each speaker (for example the salesperson and the customer) and use that role, localized into the detected language, as the speaker label. Do not use neutral labels like "Speaker 1".
3. Give each transcript segment a startTime and endTime in MM:SS form (HH:MM:SS past the hour).
4. Produce between 10 and 15 sentiment checkpoints spread evenly across the call duration, each with a 0-100 score and a short context note.
5. Give exactly 3 coaching strengths and exactly 3 coaching improvements.
6. List every objection raised by the buyer. Categorize each as price, timing, authority, need, competitor or other, quote it, timestamp it, rate how it was handled as strong, weak or missed, and suggest a rebuttal where handling was weak or missed.
7. Compute sales metrics: talk ratio of the salesperson as a percentage, number of questions asked, filler word count, longest salesperson monologue in seconds, buying signals and risk signals.
8. Give one composite risk assessment: a 1-10 score, a level of low, medium, high or critical, the reasons, and any deal breakers.
9. Recommend next steps: one primary action, a timeline, secondary actions, and a complete drafted follow-up email.
10. Classify the call as discovery, demo, negotiation, closing, renewal or other, summarize it, list the main topics, and give a one-line verdict.

Return only the JSON object.`
