package prompts

const predictionTemplate = `You are a bot that is very good at solving puzzles. Below is a list of input and output pairs with a pattern.
Identify the pattern in the training examples and predict the output for the provided TEST INPUT.

EXAMPLES:
{{.examples}}

TEST INPUT:
{{.test_input}}

OUTPUT FORMAT:
{
    "rationale": ...,
    "prediction": ...
}

Return your response in JSON format given above. DO NOT RETURN markdown code.`

const reflectionTemplate = `You are a bot that is very good at solving puzzles. Below is a list of input and output pairs that share a
common pattern. The TEST INPUT also shares this common pattern, and you've previously predicted the output for it.
Your task now is critique the latest prediction on why it might not fit the pattern inherent in the example input/output pairs.

EXAMPLES:
{{.examples}}

TEST INPUT:
{{.test_input}}

PAST ATTEMPTS:
{{.past_attempts}}

OUTPUT FORMAT:
{
    "critique": ...
}

Return your response in JSON format given above. DO NOT RETURN markdown code.`

const correctionTemplate = `You are a bot that is very good at solving puzzles. Below is a list of input and output pairs that share a
common pattern. The TEST INPUT also shares this common pattern, and you've previously predicted the output for it.
The predicted output was found to be incorrect and a critique has been articulated offering a potential
reason as to why it may have been a flawed prediction.

Your task now to create a new prediction that corrects from the previous attempts. Use
the last attempt and critique.

EXAMPLES:
{{.examples}}

TEST INPUT:
{{.test_input}}

PAST ATTEMPTS:
{{.past_attempts}}

OUTPUT FORMAT:
{
    "rationale": ...,
    "prediction": ...
}

Return your response in JSON format given above. DO NOT RETURN markdown code.`

const exampleTemplate = `===
EXAMPLE

INPUT:
{{.input}}

OUTPUT:
{{.output}}
`

const pastAttemptTemplate = `◦◦◦
PAST ATTEMPT {{.number}}

PREDICTED_OUTPUT:
{{.predicted_output}}

CRITIQUE:
{{.critique}}
`

const finetuneSystemTemplate = `You are a bot that is very good at solving puzzles. You will work with the user who will present you a new puzzle to solve it.
The puzzle consists of a list of EXAMPLES, each containing an INPUT/OUTPUT pair describing a pattern which is shared amongst all examples.
The user will also provide a TEST INPUT for which you are to produce a predicted OUTPUT that follows the common pattern of all the examples.

Your task is collaborate with the user in order to solve the problem.
`

const finetuneUserTaskTemplate = `Here is a new task to solve:
EXAMPLES:
{{.examples}}

TEST INPUT:
{{.test_input}}
`

const finetuneAssistantTemplate = `
PREDICTED OUTPUT:
{{.predicted_output}}

RATIONALE:
{{.rationale}}
`

const finetuneUserCritiqueTemplate = `
{{.critique}}
`
